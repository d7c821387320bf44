package service

import (
	"math"
	"time"

	"chargeplan/internal/core/domain"
)

// WindowScheduler turns a target SoC into an actual start time within the
// low-tariff window.
type WindowScheduler struct {
	Strategy     domain.ChargeStrategy
	SafetyMargin time.Duration
}

type ScheduleResult struct {
	EnergyNeededKWh float64
	TimeNeededHours float64
	// ChargeStart is when charging should begin. With OPTIMIZED_TIMING it
	// is delayed so charging finishes just before the window closes.
	ChargeStart time.Time
	// WindowDeficit is set when the needed time exceeds what remains of
	// the window. Charging then starts immediately anyway: the need is
	// flagged, never silently dropped.
	WindowDeficit bool
}

func (s WindowScheduler) Schedule(now, windowStart, windowEnd time.Time, battery domain.BatteryState, targetPct float64) ScheduleResult {
	var r ScheduleResult

	r.EnergyNeededKWh = math.Max(0, (targetPct-battery.SoCPercent)/100*battery.CapacityKWh)
	if battery.MaxChargePowerKW > 0 {
		r.TimeNeededHours = r.EnergyNeededKWh / battery.MaxChargePowerKW
	} else if r.EnergyNeededKWh > 0 {
		// unknown charge power: assume the whole window is needed
		r.TimeNeededHours = windowEnd.Sub(windowStart).Hours()
	}

	// time remaining counts from now when the window is already open
	remainingFrom := windowStart
	if now.After(windowStart) {
		remainingFrom = now
	}
	remaining := windowEnd.Sub(remainingFrom)
	needed := durationFromHours(r.TimeNeededHours)
	// a window that has already closed is not a deficit, the next plan
	// computation will schedule against the next window
	r.WindowDeficit = r.EnergyNeededKWh > 0 && remaining > 0 && needed > remaining

	switch {
	case r.WindowDeficit:
		r.ChargeStart = remainingFrom
	case s.Strategy == domain.StrategyOptimizedTiming:
		start := windowEnd.Add(-needed).Add(-s.SafetyMargin)
		if start.Before(remainingFrom) {
			start = remainingFrom
		}
		r.ChargeStart = start
	default:
		r.ChargeStart = remainingFrom
	}
	return r
}

func durationFromHours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
