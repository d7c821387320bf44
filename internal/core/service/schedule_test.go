package service

import (
	"testing"
	"time"

	"chargeplan/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	wStart = time.Date(2024, 11, 21, 2, 0, 0, 0, time.UTC)
	wEnd   = time.Date(2024, 11, 21, 6, 30, 0, 0, time.UTC)
)

func battery(soc, capKWh, powerKW float64) domain.BatteryState {
	return domain.BatteryState{SoCPercent: soc, CapacityKWh: capKWh, MaxChargePowerKW: powerKW}
}

// Worked example: 45% -> 100% on a 5 kWh battery at 3.84 kW charges 2.75 kWh
// in about 43 minutes; with a 30-minute margin the start lands around 05:17.
func TestOptimizedTimingStart(t *testing.T) {
	s := WindowScheduler{
		Strategy:     domain.StrategyOptimizedTiming,
		SafetyMargin: 30 * time.Minute,
	}
	now := wStart.Add(-time.Hour)

	r := s.Schedule(now, wStart, wEnd, battery(45, 5, 3.84), 100)

	require.InDelta(t, 2.75, r.EnergyNeededKWh, 1e-9)
	require.InDelta(t, 0.716, r.TimeNeededHours, 0.001)
	assert.False(t, r.WindowDeficit)
	assert.Equal(t, "05:17", r.ChargeStart.Format("15:04"))
}

func TestImmediateStartsAtWindowOpen(t *testing.T) {
	s := WindowScheduler{Strategy: domain.StrategyImmediate}
	now := wStart.Add(-time.Hour)

	r := s.Schedule(now, wStart, wEnd, battery(45, 5, 3.84), 100)
	assert.Equal(t, wStart, r.ChargeStart)
}

func TestStartNotBeforeNowInsideWindow(t *testing.T) {
	s := WindowScheduler{Strategy: domain.StrategyImmediate}
	now := wStart.Add(2 * time.Hour)

	r := s.Schedule(now, wStart, wEnd, battery(45, 5, 3.84), 100)
	assert.Equal(t, now, r.ChargeStart)
}

func TestWindowDeficitStartsImmediately(t *testing.T) {
	s := WindowScheduler{
		Strategy:     domain.StrategyOptimizedTiming,
		SafetyMargin: 30 * time.Minute,
	}
	// 10 kWh needed at 1 kW does not fit a 4.5 h window
	now := wStart.Add(-time.Hour)

	r := s.Schedule(now, wStart, wEnd, battery(0, 10, 1), 100)
	assert.True(t, r.WindowDeficit)
	assert.Equal(t, wStart, r.ChargeStart)
}

func TestNoDeficitAfterWindowClosed(t *testing.T) {
	s := WindowScheduler{
		Strategy:     domain.StrategyOptimizedTiming,
		SafetyMargin: 30 * time.Minute,
	}
	// an afternoon trigger is hours past the window, there is nothing
	// left to fit so nothing to flag
	now := wEnd.Add(8 * time.Hour)

	r := s.Schedule(now, wStart, wEnd, battery(45, 5, 3.84), 100)
	assert.False(t, r.WindowDeficit)
}

func TestNoEnergyNeededWhenTargetMet(t *testing.T) {
	s := WindowScheduler{Strategy: domain.StrategyImmediate}
	now := wStart

	r := s.Schedule(now, wStart, wEnd, battery(90, 5, 3.84), 80)
	assert.Equal(t, 0.0, r.EnergyNeededKWh)
	assert.Equal(t, 0.0, r.TimeNeededHours)
	assert.False(t, r.WindowDeficit)
}

func TestUnknownChargePowerAssumesFullWindow(t *testing.T) {
	s := WindowScheduler{Strategy: domain.StrategyOptimizedTiming, SafetyMargin: 30 * time.Minute}
	now := wStart.Add(-time.Hour)

	r := s.Schedule(now, wStart, wEnd, battery(20, 5, 0), 100)
	assert.InDelta(t, 4.5, r.TimeNeededHours, 1e-9)
	// the optimized start would land before the window opens: clamp
	assert.Equal(t, wStart, r.ChargeStart)
}
