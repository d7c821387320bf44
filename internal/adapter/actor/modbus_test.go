package actor

import (
	"testing"
	"time"

	"chargeplan/internal/core/domain"
	"chargeplan/internal/util/actorutil"
	"chargeplan/pkg/storage_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestGetStorageStateModbusActor(t *testing.T) {

	assert := assert.New(t)

	storage, err := storage_modbus.CreateTestStorageModbusReader()
	if err != nil {
		t.Error(err)
		return
	}

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewModbusActor(storage, 3840, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	msg := domain.GetStorageStateRequest{}
	result, err := context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetStorageStateResponse)

	assert.False(resp.HasResponseError())
	assert.Equal(45.0, resp.Battery.SoCPercent, "battery SoC")
	assert.Equal(5.0, resp.Battery.CapacityKWh, "battery capacity")
	assert.Equal(3.84, resp.Battery.MaxChargePowerKW, "max charge power")
	assert.Equal("holding", resp.Battery.ChargeStatus, "charge status")

	context.Stop(pid)

	as.Shutdown()
}

func TestSetGridChargeModbusActor(t *testing.T) {

	assert := assert.New(t)

	storage := &storage_modbus.TestStorageModbusReader{SoC: 40, MaxCapacityWattHour: 5000, MaxChargePowerWatt: 3840}

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewModbusActor(storage, 3840, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	result, err := context.RequestFuture(pid, domain.SetGridChargeRequest{Enable: true}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.SetGridChargeResponse)
	assert.False(resp.HasResponseError())
	assert.True(resp.Changed, "first enable changes state")
	assert.Equal(uint32(3840), storage.GridChargePower, "default power applied")

	// same request again is a no-op
	result, err = context.RequestFuture(pid, domain.SetGridChargeRequest{Enable: true}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp = result.(domain.SetGridChargeResponse)
	assert.False(resp.Changed, "repeat enable is a no-op")

	context.Stop(pid)

	as.Shutdown()
}
