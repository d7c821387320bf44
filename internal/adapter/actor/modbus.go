package actor

import (
	"fmt"
	"time"

	"chargeplan/internal/core/domain"
	"chargeplan/internal/util/actorutil"
	"chargeplan/pkg/storage_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// ModbusActor serializes all access to the storage device. Reads and the
// grid charge actuation run as background tasks so a slow device never
// blocks the mailbox dispatcher.
type ModbusActor struct {
	behavior      actor.Behavior
	stash         *actorutil.Stash
	storage       storage_modbus.StorageModbusReader
	defaultPowerW uint32
	logger        *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewModbusActor(storage storage_modbus.StorageModbusReader, defaultPowerWatt uint32, logger *zap.Logger) *ModbusActor {
	act := &ModbusActor{
		storage:       storage,
		defaultPowerW: defaultPowerWatt,
		behavior:      actor.NewBehavior(),
		stash:         &actorutil.Stash{},
		logger:        actorutil.ActorLogger(domain.ACTOR_ID_MODBUS, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *ModbusActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *ModbusActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("modbus@starting started")
		if err := state.storage.Open(); err != nil {
			panic(err)
		}
		if err := state.storage.Validate(); err != nil {
			panic(err)
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.storage.Close()
	default:
		state.logger.Debug("modbus@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *ModbusActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("modbus@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MODBUS,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetStorageInfoRequest:
		state.logger.Debug("modbus@default: GetStorageInfoRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getStorageInfo),
			mapTaskResult[domain.GetStorageInfoResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetStorageInfoResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(2 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingModbus)
	case domain.GetStorageStateRequest:
		state.logger.Debug("modbus@default: GetStorageStateRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getStorageState),
			mapTaskResult[domain.GetStorageStateResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetStorageStateResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(2 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingModbus)
	case domain.SetGridChargeRequest:
		state.logger.Debug("modbus@default: SetGridChargeRequest",
			zap.Bool("enable", msg.Enable), zap.Uint32("power_watt", msg.PowerWatt))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, func() (*domain.SetGridChargeResponse, error) {
			return state.setGridCharge(msg.Enable, msg.PowerWatt)
		}),
			mapTaskResult[domain.SetGridChargeResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.SetGridChargeResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(2 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingModbus)
	case *actor.Stopping:
		state.storage.Close()
	default:
		state.logger.Debug("modbus@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *ModbusActor) WaitingModbus(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("modbus@WaitingModbus backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
		state.storage.Close()
	default:
		state.logger.Debug("modbus@WaitingModbus stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (a *ModbusActor) getStorageInfo() (*domain.GetStorageInfoResponse, error) {
	info, err := a.storage.GetInfo()
	if err != nil {
		return nil, err
	}
	return &domain.GetStorageInfoResponse{
		Info: info,
	}, nil
}

func (a *ModbusActor) getStorageState() (*domain.GetStorageStateResponse, error) {
	st, err := a.storage.GetStorageState()
	if err != nil {
		return nil, err
	}
	return &domain.GetStorageStateResponse{
		Battery: storageStateToBattery(st),
	}, nil
}

func (a *ModbusActor) setGridCharge(enable bool, powerWatt uint32) (*domain.SetGridChargeResponse, error) {
	if powerWatt == 0 {
		powerWatt = a.defaultPowerW
	}
	changed, err := a.storage.SetGridCharge(enable, powerWatt)
	if err != nil {
		return nil, err
	}
	return &domain.SetGridChargeResponse{
		Changed: changed,
	}, nil
}

func storageStateToBattery(st *storage_modbus.StorageState) *domain.BatteryState {
	if st == nil {
		return nil
	}
	return &domain.BatteryState{
		SoCPercent:       st.StateOfChargePercent,
		CapacityKWh:      float64(st.MaxCapacityWattHour) / 1000,
		MaxChargePowerKW: float64(st.MaxChargePowerWatt) / 1000,
		ChargeStatus:     st.ChargeStatusStr,
	}
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
