package actor

import (
	"fmt"
	"testing"
	"time"

	adactor "chargeplan/internal/adapter/actor"
	"chargeplan/internal/core/domain"
	"chargeplan/internal/util"
	"chargeplan/pkg/storage_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMasterActor(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, func() *adactor.ModbusActor {
			return adactor.NewModbusActor(&storage_modbus.TestStorageModbusReader{
				SoC:                 45,
				MaxCapacityWattHour: 5000,
				MaxChargePowerWatt:  3840,
			}, cfg.Planner.ChargePowerWatt, logger)
		}, func() *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, logger)
		}, func(modbusActor, mqttActor *actor.PID) *PlannerActor {
			return NewPlannerActor(&cfg, modbusActor, mqttActor, nil, logger)
		}, logger)
	})
	pid, err := context.SpawnNamed(props, "master")
	if err != nil {
		t.Error(err)
		return
	}

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
	}
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	fmt.Printf("Health response: %+v\n", healthResp)
	assert.NotNil(t, healthResp)

	assert.True(t, healthResp.Healthy, "healthy is true")

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterRoutesPlanQuery(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	logger := zap.NewNop()

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, func() *adactor.ModbusActor {
			return adactor.NewModbusActor(&storage_modbus.TestStorageModbusReader{
				SoC:                 45,
				MaxCapacityWattHour: 5000,
				MaxChargePowerWatt:  3840,
			}, cfg.Planner.ChargePowerWatt, logger)
		}, func() *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, logger)
		}, func(modbusActor, mqttActor *actor.PID) *PlannerActor {
			return NewPlannerActor(&cfg, modbusActor, mqttActor, nil, logger)
		}, logger)
	})
	pid, err := context.SpawnNamed(props, "master")
	if err != nil {
		t.Error(err)
		return
	}

	// let the startup computation run
	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.GetPlanRequest{}, 5*time.Second).Result()
	if err != nil {
		t.Error(err)
	}
	planResp, ok := res.(domain.GetPlanResponse)
	assert.True(t, ok)
	assert.NotNil(t, planResp.Plan)
	assert.Equal(t, 45.0, planResp.Plan.Breakdown.SoCPercent)

	context.Stop(pid)

	as.Shutdown()
}
