package actor

import (
	"context"
	"testing"
	"time"

	adactor "chargeplan/internal/adapter/actor"
	"chargeplan/internal/core/domain"
	"chargeplan/internal/core/port"
	"chargeplan/internal/util"
	"chargeplan/pkg/storage_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fixedStats struct {
	history []domain.DailyEnergy
}

func (s fixedStats) DailyEnergy(ctx context.Context, query port.StatsQuery) ([]domain.DailyEnergy, error) {
	return s.history, nil
}

func spawnPlannerUnderTest(t *testing.T, context *actor.RootContext, stats port.ConsumptionStats) *actor.PID {
	t.Helper()

	cfg := util.LoadTestConfig()
	logger := zap.NewNop()

	modbusProps := actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewModbusActor(&storage_modbus.TestStorageModbusReader{
			SoC:                 45,
			MaxCapacityWattHour: 5000,
			MaxChargePowerWatt:  3840,
		}, cfg.Planner.ChargePowerWatt, logger)
	})
	modbusPID, err := context.SpawnNamed(modbusProps, "test_modbus")
	if err != nil {
		t.Fatal(err)
	}

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewTestMQTTActor(&cfg, logger)
	})
	mqttPID, err := context.SpawnNamed(mqttProps, "test_mqtt")
	if err != nil {
		t.Fatal(err)
	}

	plannerProps := actor.PropsFromProducer(func() actor.Actor {
		return NewPlannerActor(&cfg, modbusPID, mqttPID, stats, logger)
	})
	plannerPID, err := context.SpawnNamed(plannerProps, "test_planner")
	if err != nil {
		t.Fatal(err)
	}
	return plannerPID
}

func TestPlannerActorComputesOnStartup(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	pid := spawnPlannerUnderTest(t, context, nil)

	time.Sleep(1 * time.Second)

	res, err := context.RequestFuture(pid, domain.GetPlanRequest{}, 5*time.Second).Result()
	if err != nil {
		t.Error(err)
	}
	planResp, ok := res.(domain.GetPlanResponse)
	assert.True(t, ok)
	assert.NotNil(t, planResp.Plan)
	assert.Equal(t, 45.0, planResp.Plan.Breakdown.SoCPercent)
	// no stats source configured, so the predictor falls back
	assert.True(t, planResp.Plan.Breakdown.ConsumptionFallback)
	assert.Equal(t, 5.0, planResp.Plan.Breakdown.PredictedConsumptionKWh)

	as.Shutdown()
}

func TestPlannerActorRedTodayNeverCharges(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	pid := spawnPlannerUnderTest(t, context, nil)

	time.Sleep(1 * time.Second)

	context.Send(pid, domain.TariffSignal{
		Tomorrow: false,
		Date:     time.Now(),
		Color:    domain.TariffRed,
	})

	time.Sleep(1 * time.Second)

	res, err := context.RequestFuture(pid, domain.GetPlanRequest{}, 5*time.Second).Result()
	if err != nil {
		t.Error(err)
	}
	planResp, ok := res.(domain.GetPlanResponse)
	assert.True(t, ok)
	assert.NotNil(t, planResp.Plan)
	assert.Equal(t, domain.DecisionNeverCharge, planResp.Plan.Class)
	assert.False(t, planResp.Plan.ShouldChargeNow)

	as.Shutdown()
}

func TestPlannerActorUsesHistoryStats(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	tomorrow := time.Now().AddDate(0, 0, 1)
	stats := fixedStats{
		history: []domain.DailyEnergy{
			{Date: tomorrow.AddDate(0, 0, -7), EnergyKWh: 7.0},
			{Date: tomorrow.AddDate(0, 0, -14), EnergyKWh: 9.0},
		},
	}

	pid := spawnPlannerUnderTest(t, context, stats)

	time.Sleep(1 * time.Second)

	res, err := context.RequestFuture(pid, domain.GetPlanRequest{}, 5*time.Second).Result()
	if err != nil {
		t.Error(err)
	}
	planResp, ok := res.(domain.GetPlanResponse)
	assert.True(t, ok)
	assert.NotNil(t, planResp.Plan)
	assert.False(t, planResp.Plan.Breakdown.ConsumptionFallback)
	assert.Equal(t, 8.0, planResp.Plan.Breakdown.PredictedConsumptionKWh)

	as.Shutdown()
}

func TestPlannerActorMinReserveCommand(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	pid := spawnPlannerUnderTest(t, context, nil)

	time.Sleep(1 * time.Second)

	res, err := context.RequestFuture(pid, domain.SetMinReserveSoCRequest{MinReserveSoC: 60}, 5*time.Second).Result()
	if err != nil {
		t.Error(err)
	}
	resp, ok := res.(domain.SetMinReserveSoCResponse)
	assert.True(t, ok)
	assert.Equal(t, uint(60), resp.MinReserveSoC)

	// the command triggers a recompute; the new floor shows in the target
	time.Sleep(1 * time.Second)

	planRes, err := context.RequestFuture(pid, domain.GetPlanRequest{}, 5*time.Second).Result()
	if err != nil {
		t.Error(err)
	}
	planResp, ok := planRes.(domain.GetPlanResponse)
	assert.True(t, ok)
	assert.NotNil(t, planResp.Plan)
	assert.GreaterOrEqual(t, planResp.Plan.TargetSoCPercent, 60.0)

	as.Shutdown()
}

func TestPlannerActorGridChargeOverride(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	pid := spawnPlannerUnderTest(t, context, nil)

	time.Sleep(1 * time.Second)

	res, err := context.RequestFuture(pid, domain.GridChargeOverrideRequest{Enable: true}, 5*time.Second).Result()
	if err != nil {
		t.Error(err)
	}
	resp, ok := res.(domain.GridChargeOverrideResponse)
	assert.True(t, ok)
	assert.False(t, resp.HasResponseError())

	as.Shutdown()
}
