package service

import (
	"time"

	"chargeplan/internal/core/domain"

	"go.uber.org/zap"
)

// Planner is the complete, pure plan computation: calendar + forecasts +
// history + battery state in, one PlanDecision out. Identical inputs always
// produce identical output; all state lives in the caller.
type Planner struct {
	Tariff      TariffEvaluator
	Consumption ConsumptionPredictor
	Target      SoCTargetCalculator
	Scheduler   WindowScheduler
	Window      domain.ChargeWindow
	Logger      *zap.Logger
}

// PlanInput is the read-only snapshot taken at the start of a computation.
type PlanInput struct {
	Now time.Time
	// TariffToday and TariffTomorrow may be nil when the calendar has not
	// published them; nil defaults to WHITE.
	TariffToday    *domain.TariffDay
	TariffTomorrow *domain.TariffDay
	Forecast       domain.ForecastSample
	History        []domain.DailyEnergy
	Battery        domain.BatteryState
}

func (p Planner) Compute(in PlanInput) domain.PlanDecision {
	battery := p.sanitizeBattery(in.Battery)

	today := tariffColorOrDefault(in.TariffToday)
	tomorrow := tariffColorOrDefault(in.TariffTomorrow)

	windowStart, windowEnd := p.Window.On(in.Now)
	windowOpen := p.Window.Contains(in.Now)

	consumption, usedFallback := p.Consumption.Predict(in.Now.AddDate(0, 0, 1), in.History)

	target := p.Target.Compute(SoCTargetInput{
		ProductionKWh:         in.Forecast.PredictedProductionKWh,
		ConsumptionKWh:        consumption,
		ConsumptionPerHourKWh: consumption / 24,
		CapacityKWh:           battery.CapacityKWh,
		Sunrise:               in.Forecast.Sunrise,
		WindowEnd:             windowEnd,
	})

	class := p.Tariff.Evaluate(today, tomorrow, battery.SoCPercent, target.TargetPct, windowOpen)

	targetPct := target.TargetPct
	if class == domain.DecisionForceFullCharge {
		// tomorrow is RED: guarantee a full battery no matter what the
		// additive stages computed
		targetPct = 100
	}

	sched := p.Scheduler.Schedule(in.Now, windowStart, windowEnd, battery, targetPct)

	var chargeNow bool
	switch class {
	case domain.DecisionForceFullCharge, domain.DecisionForceMinSoC:
		chargeNow = true
	case domain.DecisionWindowOpenBelowTarget:
		if p.Scheduler.Strategy == domain.StrategyOptimizedTiming {
			chargeNow = !in.Now.Before(sched.ChargeStart)
		} else {
			chargeNow = true
		}
	default:
		// NEVER_CHARGE and NO_ACTION
		chargeNow = false
	}

	return domain.PlanDecision{
		ComputedAt:       in.Now,
		Class:            class,
		Strategy:         p.Scheduler.Strategy,
		TargetSoCPercent: targetPct,
		WindowStart:      windowStart,
		WindowEnd:        windowEnd,
		ChargeStart:      sched.ChargeStart,
		ShouldChargeNow:  chargeNow,
		Breakdown: domain.PlanBreakdown{
			TariffToday:             today,
			TariffTomorrow:          tomorrow,
			SoCPercent:              battery.SoCPercent,
			PredictedProductionKWh:  in.Forecast.PredictedProductionKWh,
			PredictedConsumptionKWh: consumption,
			ConsumptionFallback:     usedFallback,
			BaseTargetPct:           target.BasePct,
			SunriseGapHours:         target.GapHours,
			SunriseAdjustmentPct:    target.SunriseAdjPct,
			DeficitKWh:              target.DeficitKWh,
			DeficitAdjustmentPct:    target.DeficitAdjPct,
			RawTargetPct:            target.RawPct,
			EnergyNeededKWh:         sched.EnergyNeededKWh,
			TimeNeededHours:         sched.TimeNeededHours,
			WindowDeficit:           sched.WindowDeficit,
		},
	}
}

// sanitizeBattery clamps out-of-range reads instead of failing the
// computation. Clamps are logged as warnings since they indicate a
// misbehaving battery provider.
func (p Planner) sanitizeBattery(b domain.BatteryState) domain.BatteryState {
	if b.SoCPercent < 0 || b.SoCPercent > 100 {
		p.logWarn("battery SoC out of range, clamping", zap.Float64("soc", b.SoCPercent))
		b.SoCPercent = clamp(b.SoCPercent, 0, 100)
	}
	if b.CapacityKWh < 0 {
		p.logWarn("negative battery capacity, clamping to 0", zap.Float64("capacity_kwh", b.CapacityKWh))
		b.CapacityKWh = 0
	}
	if b.MaxChargePowerKW < 0 {
		p.logWarn("negative max charge power, clamping to 0", zap.Float64("max_charge_power_kw", b.MaxChargePowerKW))
		b.MaxChargePowerKW = 0
	}
	return b
}

func (p Planner) logWarn(msg string, fields ...zap.Field) {
	if p.Logger != nil {
		p.Logger.Warn(msg, fields...)
	}
}

func tariffColorOrDefault(day *domain.TariffDay) domain.TariffColor {
	if day == nil {
		return domain.TariffWhite
	}
	return day.Color
}
