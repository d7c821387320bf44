package actor

import (
	"context"
	"fmt"
	"time"

	"chargeplan/internal/config"
	"chargeplan/internal/core/domain"
	"chargeplan/internal/core/port"
	"chargeplan/internal/core/service"
	"chargeplan/internal/events"
	"chargeplan/internal/metrics"
	. "chargeplan/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

const (
	PLANNER_SNAPSHOT_TIMEOUT = 3 * time.Second
	PLANNER_STATS_TIMEOUT    = 5 * time.Second
	PLANNER_ACTUATE_TIMEOUT  = 3 * time.Second
)

// PlannerActor owns the plan state machine. Every trigger runs the same
// sequence: snapshot battery, fetch history, compute, publish, actuate.
// Triggers arriving mid-sequence are stashed so a computation always runs
// on a coherent snapshot.
type PlannerActor struct {
	ActorWithStates
	config      *config.Config
	stash       *Stash
	modbusActor *actor.PID
	mqttActor   *actor.PID
	stats       port.ConsumptionStats
	planner     service.Planner

	tariffToday    *domain.TariffDay
	tariffTomorrow *domain.TariffDay
	forecast       domain.ForecastSample
	lastPlan       *domain.PlanDecision
	overrideOn     bool
	pending        *planComputation

	logger *zap.Logger
}

type planComputation struct {
	reason    string
	startedAt time.Time
	battery   *domain.BatteryState
}

type plannerHistoryResult struct {
	history []domain.DailyEnergy
	err     error
}

func NewPlannerActor(config *config.Config, modbusActor *actor.PID, mqttActor *actor.PID,
	stats port.ConsumptionStats, logger *zap.Logger) *PlannerActor {
	act := &PlannerActor{
		config:      config,
		modbusActor: modbusActor,
		mqttActor:   mqttActor,
		stats:       stats,
		planner:     PlannerFromConfig(config, logger),
		stash:       &Stash{},
		logger:      ActorLogger(domain.ACTOR_ID_PLANNER, logger),
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	act.Become(PLStartingState{
		actor: act,
	})
	return act
}

// PlannerFromConfig assembles the pure computation out of the validated
// config. Config values of zero fall back to the service defaults.
func PlannerFromConfig(cfg *config.Config, logger *zap.Logger) service.Planner {
	windowStart, _ := domain.ParseClockTime(cfg.Planner.WindowStart)
	windowEnd, _ := domain.ParseClockTime(cfg.Planner.WindowEnd)
	strategy, _ := domain.ParseChargeStrategy(cfg.Planner.Strategy)

	predictor := service.DefaultConsumptionPredictor()
	if cfg.Planner.LookbackDays > 0 {
		predictor.LookbackDays = cfg.Planner.LookbackDays
	}
	predictor.SeasonalFilter = cfg.Planner.SeasonalFilter
	if cfg.Planner.FallbackConsumptionKWh > 0 {
		predictor.FallbackKWh = cfg.Planner.FallbackConsumptionKWh
	}

	maxDeficit := cfg.Planner.MaxDeficitAdjustmentPct
	if maxDeficit <= 0 {
		maxDeficit = service.DEFAULT_MAX_DEFICIT_ADJUSTMENT_PCT
	}

	return service.Planner{
		Tariff: service.TariffEvaluator{
			SafetyFloorSoC: cfg.Planner.SafetyFloorSoC,
		},
		Consumption: predictor,
		Target: service.SoCTargetCalculator{
			MaxDeficitAdjustmentPct: maxDeficit,
			MinReserveSoC:           cfg.Planner.MinReserveSoC,
		},
		Scheduler: service.WindowScheduler{
			Strategy:     strategy,
			SafetyMargin: time.Duration(cfg.Planner.SafetyMarginMinutes) * time.Minute,
		},
		Window: domain.ChargeWindow{
			Start: windowStart,
			End:   windowEnd,
		},
		Logger: logger,
	}
}

func (state *PlannerActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

// Starting state

type PLStartingState struct {
	ActorState
	actor *PlannerActor
}

func (state PLStartingState) Name() string {
	return "starting"
}

func (state PLStartingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.actor.logger.Debug("planner@starting started")
		// first computation runs as soon as the modbus actor can answer
		ctx.Send(ctx.Self(), domain.RecomputeTrigger{Reason: domain.TRIGGER_STARTUP})
		state.actor.Become(PLIdleState{
			actor: state.actor,
		})
		state.actor.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.actor.logger.Debug("planner@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Idle state

type PLIdleState struct {
	ActorState
	actor *PlannerActor
}

func (state PLIdleState) Name() string {
	return "idle"
}

func (state PLIdleState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.actor.logger.Debug("planner@idle: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_PLANNER,
			Healthy: true,
			State:   state.Name(),
		})
	case domain.TariffSignal:
		state.actor.logger.Info("planner@idle: tariff signal",
			zap.Bool("tomorrow", msg.Tomorrow), zap.String("color", msg.Color.String()))
		day := &domain.TariffDay{Date: msg.Date, Color: msg.Color}
		if msg.Tomorrow {
			state.actor.tariffTomorrow = day
		} else {
			state.actor.tariffToday = day
		}
		state.actor.beginComputation(ctx, domain.TRIGGER_TARIFF)
	case domain.ForecastSignal:
		state.actor.logger.Info("planner@idle: forecast signal",
			zap.Float64("production_kwh", msg.PredictedProductionKWh))
		state.actor.forecast.TargetDate = msg.TargetDate
		state.actor.forecast.PredictedProductionKWh = msg.PredictedProductionKWh
		state.actor.beginComputation(ctx, domain.TRIGGER_FORECAST)
	case domain.SunriseSignal:
		state.actor.logger.Info("planner@idle: sunrise signal", zap.Timep("sunrise", msg.Sunrise))
		state.actor.forecast.Sunrise = msg.Sunrise
		state.actor.beginComputation(ctx, domain.TRIGGER_SUNRISE)
	case domain.RecomputeTrigger:
		if state.actor.overrideOn && msg.Reason == domain.TRIGGER_BATTERY_POLL {
			// a manual override survives the periodic poll; any other
			// trigger recomputes from scratch and drops it
			state.actor.logger.Debug("planner@idle: override active, skipping battery poll")
			return
		}
		state.actor.logger.Debug("planner@idle: recompute trigger", zap.String("reason", msg.Reason))
		state.actor.beginComputation(ctx, msg.Reason)
	case domain.GetPlanRequest:
		state.actor.logger.Debug("planner@idle: GetPlanRequest")
		ForRequest(msg).Respond(ctx, domain.GetPlanResponse{
			Plan: state.actor.lastPlan,
		})
	case domain.PlannerRequest:
		switch cmd := msg.(type) {
		case domain.GridChargeOverrideRequest:
			state.actor.logger.Sugar().Infof("planner@idle: cmd gridChargeOverride %t", cmd.Enable)
			state.actor.overrideOn = cmd.Enable
			state.actor.actuate(ctx, cmd.Enable)
			state.actor.BecomeStacked(PLAwaitOverrideState{
				actor:   state.actor,
				enable:  cmd.Enable,
				replyTo: ForRequest(cmd).ReplyTo(ctx),
			})
		case domain.SetMinReserveSoCRequest:
			state.actor.logger.Sugar().Infof("planner@idle: cmd setMinReserveSoC %d", cmd.MinReserveSoC)
			state.actor.planner.Target.MinReserveSoC = float64(cmd.MinReserveSoC)
			state.actor.publishUpdate(ctx, domain.InputNumberSensorUpdateEvent{
				SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: events.INPUT_NUMBER_ID_MIN_RESERVE_SOC},
				Value:                  float64(cmd.MinReserveSoC),
			})
			ForRequest(cmd).Respond(ctx, domain.SetMinReserveSoCResponse{
				MinReserveSoC: cmd.MinReserveSoC,
			})
			state.actor.beginComputation(ctx, domain.TRIGGER_MANUAL)
		}
	default:
		state.actor.logger.Debug("planner@idle: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// Computing state. Stacked over idle for the whole snapshot/compute/actuate
// sequence; everything else waits in the stash.

type PLComputingState struct {
	ActorState
	actor *PlannerActor
}

func (state PLComputingState) Name() string {
	return "computing"
}

func (state PLComputingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_PLANNER,
			Healthy: true,
			State:   state.Name(),
		})
	case domain.GetStorageStateResponse:
		if msg.HasResponseError() {
			// no battery snapshot, no plan. The previous plan and the
			// device state stay untouched until the next trigger.
			state.actor.logger.Error("planner@computing: storage snapshot failed",
				zap.Error(msg.GetResponseError()))
			state.finish(ctx)
			return
		}
		state.actor.pending.battery = msg.Battery
		for _, ev := range events.BatteryUpdateEvents(msg.Battery) {
			state.actor.publishUpdate(ctx, ev)
		}
		state.actor.fetchHistory(ctx)
	case plannerHistoryResult:
		if msg.err != nil {
			// predictor falls back to its configured constant
			state.actor.logger.Warn("planner@computing: history fetch failed",
				zap.Error(msg.err))
		}
		plan := state.actor.compute(msg.history)
		state.actor.lastPlan = &plan
		state.actor.overrideOn = false
		metrics.ObservePlanCompute(state.actor.pending.reason, time.Since(state.actor.pending.startedAt))
		metrics.SetPlanGauges(plan.TargetSoCPercent, plan.Breakdown.SoCPercent, plan.ShouldChargeNow)
		updates := events.FilterPlanUpdates(events.PlanUpdateEvents(&plan), state.actor.config.Planner.DebugTelemetry)
		for _, ev := range updates {
			state.actor.publishUpdate(ctx, ev)
		}
		state.actor.logger.Info("planner@computing: plan computed",
			zap.String("reason", state.actor.pending.reason),
			zap.String("class", plan.Class.String()),
			zap.Float64("target_soc", plan.TargetSoCPercent),
			zap.Bool("charge_now", plan.ShouldChargeNow))
		state.actor.actuate(ctx, plan.ShouldChargeNow)
	case domain.SetGridChargeResponse:
		metrics.IncActuation(msg.GetResponseError())
		if msg.HasResponseError() {
			state.actor.logger.Error("planner@computing: actuation failed",
				zap.Error(msg.GetResponseError()))
			state.actor.publishActuationError(ctx, msg.GetResponseError())
		} else {
			if msg.Changed {
				state.actor.logger.Info("planner@computing: grid charge state changed")
			}
			state.actor.publishActuationError(ctx, nil)
		}
		state.finish(ctx)
	default:
		state.actor.logger.Debug("planner@computing: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

func (state PLComputingState) finish(ctx actor.Context) {
	state.actor.pending = nil
	state.actor.UnbecomeStacked()
	state.actor.stash.UnstashAll(ctx)
}

// Await override actuation state

type PLAwaitOverrideState struct {
	ActorState
	actor   *PlannerActor
	enable  bool
	replyTo *actor.PID
}

func (state PLAwaitOverrideState) Name() string {
	return "awaitOverride"
}

func (state PLAwaitOverrideState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.SetGridChargeResponse:
		metrics.IncActuation(msg.GetResponseError())
		if msg.HasResponseError() {
			state.actor.logger.Error("planner@awaitOverride: actuation failed",
				zap.Error(msg.GetResponseError()))
			state.actor.publishActuationError(ctx, msg.GetResponseError())
		} else {
			state.actor.publishUpdate(ctx, domain.SwitchSensorUpdateEvent{
				SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: events.SWITCH_ID_GRID_CHARGE_OVERRIDE},
				Value:                  state.enable,
			})
			state.actor.publishActuationError(ctx, nil)
		}
		if state.replyTo != nil {
			ctx.Send(state.replyTo, domain.GridChargeOverrideResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: msg.GetResponseError(),
				},
				Changed: msg.Changed,
			})
		}
		state.actor.UnbecomeStacked()
		state.actor.stash.UnstashAll(ctx)
	default:
		state.actor.logger.Debug("planner@awaitOverride: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Actor helpers

func (a *PlannerActor) beginComputation(ctx actor.Context, reason string) {
	a.rollCalendar(time.Now())
	a.pending = &planComputation{
		reason:    reason,
		startedAt: time.Now(),
	}
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(a.modbusActor,
		domain.GetStorageStateRequest{}, PLANNER_SNAPSHOT_TIMEOUT),
		func(err error) any {
			return domain.GetStorageStateResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
	a.BecomeStacked(PLComputingState{
		actor: a,
	})
}

func (a *PlannerActor) fetchHistory(ctx actor.Context) {
	stats := a.stats
	if stats == nil {
		ctx.Send(ctx.Self(), plannerHistoryResult{})
		return
	}
	query := a.statsQuery(time.Now().AddDate(0, 0, 1))
	NewBackgroundTask(ctx, func() (*plannerHistoryResult, error) {
		tctx, cancel := context.WithTimeout(context.Background(), PLANNER_STATS_TIMEOUT)
		defer cancel()
		history, err := stats.DailyEnergy(tctx, query)
		if err != nil {
			return nil, err
		}
		return &plannerHistoryResult{history: history}, nil
	}).Recover(func(err error) plannerHistoryResult {
		return plannerHistoryResult{err: err}
	}).WithTimeout(PLANNER_STATS_TIMEOUT + time.Second).PipeTo(ctx.Self())
}

func (a *PlannerActor) statsQuery(targetDate time.Time) port.StatsQuery {
	query := port.StatsQuery{
		Weekday:      int(targetDate.Weekday()),
		LookbackDays: a.planner.Consumption.LookbackDays,
	}
	if a.planner.Consumption.SeasonalFilter {
		query.LookbackDays = a.planner.Consumption.SeasonalLookbackDays
		month := int(targetDate.Month())
		query.Months = []int{prevMonth(month), month, nextMonth(month)}
	}
	return query
}

func (a *PlannerActor) compute(history []domain.DailyEnergy) domain.PlanDecision {
	return a.planner.Compute(service.PlanInput{
		Now:            time.Now(),
		TariffToday:    a.tariffToday,
		TariffTomorrow: a.tariffTomorrow,
		Forecast:       a.forecast,
		History:        history,
		Battery:        *a.pending.battery,
	})
}

func (a *PlannerActor) actuate(ctx actor.Context, enable bool) {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(a.modbusActor,
		domain.SetGridChargeRequest{
			Enable:    enable,
			PowerWatt: a.config.Planner.ChargePowerWatt,
		}, PLANNER_ACTUATE_TIMEOUT),
		func(err error) any {
			return domain.SetGridChargeResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
}

// rollCalendar expires stale tariff entries at midnight boundaries:
// yesterday's "tomorrow" becomes today, anything older is dropped.
func (a *PlannerActor) rollCalendar(now time.Time) {
	if a.tariffToday != nil && !sameDay(a.tariffToday.Date, now) {
		a.tariffToday = nil
	}
	if a.tariffTomorrow != nil {
		if sameDay(a.tariffTomorrow.Date, now) {
			a.tariffToday = a.tariffTomorrow
			a.tariffTomorrow = nil
		} else if a.tariffTomorrow.Date.Before(now) {
			a.tariffTomorrow = nil
		}
	}
}

func (a *PlannerActor) publishUpdate(ctx actor.Context, event domain.SensorUpdateEvent) {
	ctx.Send(a.mqttActor, domain.PublishSensorUpdateRequest{
		Event: event,
	})
}

func (a *PlannerActor) publishActuationError(ctx actor.Context, err error) {
	value := "none"
	if err != nil {
		value = err.Error()
	}
	a.publishUpdate(ctx, domain.TextSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: events.SENSOR_ID_ACTUATION_ERROR},
		Value:                  value,
	})
}

func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func prevMonth(m int) int {
	if m == 1 {
		return 12
	}
	return m - 1
}

func nextMonth(m int) int {
	if m == 12 {
		return 1
	}
	return m + 1
}
