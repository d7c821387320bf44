package service

import (
	"testing"
	"time"

	"chargeplan/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testPlanner(strategy domain.ChargeStrategy) Planner {
	return Planner{
		Tariff:      TariffEvaluator{SafetyFloorSoC: 30},
		Consumption: DefaultConsumptionPredictor(),
		Target:      SoCTargetCalculator{MaxDeficitAdjustmentPct: 50, MinReserveSoC: 30},
		Scheduler: WindowScheduler{
			Strategy:     strategy,
			SafetyMargin: 30 * time.Minute,
		},
		Window: domain.ChargeWindow{
			Start: domain.ClockTime{Hour: 2},
			End:   domain.ClockTime{Hour: 6, Minute: 30},
		},
		Logger: zap.NewNop(),
	}
}

// inside the window
var inWindow = time.Date(2024, 11, 21, 3, 0, 0, 0, time.UTC)

func tariff(t time.Time, c domain.TariffColor) *domain.TariffDay {
	return &domain.TariffDay{Date: t, Color: c}
}

func baseInput(now time.Time) PlanInput {
	return PlanInput{
		Now:         now,
		TariffToday: tariff(now, domain.TariffNormal),
		Forecast:    domain.ForecastSample{PredictedProductionKWh: 8},
		Battery:     domain.BatteryState{SoCPercent: 45, CapacityKWh: 5, MaxChargePowerKW: 3.84},
	}
}

func TestRedTodayDominance(t *testing.T) {
	p := testPlanner(domain.StrategyImmediate)

	in := baseInput(inWindow)
	in.TariffToday = tariff(inWindow, domain.TariffRed)
	in.TariffTomorrow = tariff(inWindow.AddDate(0, 0, 1), domain.TariffRed)
	in.Battery.SoCPercent = 1 // even below the safety floor

	d := p.Compute(in)
	assert.Equal(t, domain.DecisionNeverCharge, d.Class)
	assert.False(t, d.ShouldChargeNow)
}

func TestRedTomorrowForcesFullTarget(t *testing.T) {
	p := testPlanner(domain.StrategyImmediate)

	in := baseInput(inWindow)
	in.TariffTomorrow = tariff(inWindow.AddDate(0, 0, 1), domain.TariffRed)
	// high production would normally push the target well below 100
	in.Forecast.PredictedProductionKWh = 40

	d := p.Compute(in)
	assert.Equal(t, domain.DecisionForceFullCharge, d.Class)
	assert.Equal(t, 100.0, d.TargetSoCPercent)
	assert.True(t, d.ShouldChargeNow)
}

func TestMissingTomorrowDefaultsToWhite(t *testing.T) {
	p := testPlanner(domain.StrategyImmediate)

	in := baseInput(inWindow)
	in.TariffTomorrow = nil

	d := p.Compute(in)
	assert.Equal(t, domain.TariffWhite, d.Breakdown.TariffTomorrow)
	assert.NotEqual(t, domain.DecisionForceFullCharge, d.Class)
}

func TestSafetyFloorChargesOutsideWindow(t *testing.T) {
	p := testPlanner(domain.StrategyImmediate)

	outside := time.Date(2024, 11, 21, 14, 0, 0, 0, time.UTC)
	in := baseInput(outside)
	in.TariffToday = tariff(outside, domain.TariffWhite)
	in.Battery.SoCPercent = 20

	d := p.Compute(in)
	assert.Equal(t, domain.DecisionForceMinSoC, d.Class)
	assert.True(t, d.ShouldChargeNow)
}

func TestOptimizedTimingWaitsForComputedStart(t *testing.T) {
	p := testPlanner(domain.StrategyOptimizedTiming)

	in := baseInput(inWindow) // 03:00, computed start is around 05:17
	d := p.Compute(in)

	require.Equal(t, domain.DecisionWindowOpenBelowTarget, d.Class)
	assert.False(t, d.ShouldChargeNow)

	// at the computed start, charging begins
	in2 := baseInput(d.ChargeStart)
	in2.TariffToday = tariff(d.ChargeStart, domain.TariffNormal)
	d2 := p.Compute(in2)
	assert.True(t, d2.ShouldChargeNow)
}

func TestImmediateChargesAsSoonAsWindowOpens(t *testing.T) {
	p := testPlanner(domain.StrategyImmediate)

	d := p.Compute(baseInput(inWindow))
	assert.Equal(t, domain.DecisionWindowOpenBelowTarget, d.Class)
	assert.True(t, d.ShouldChargeNow)
}

func TestNoActionWhenTargetMet(t *testing.T) {
	p := testPlanner(domain.StrategyImmediate)

	in := baseInput(inWindow)
	in.Battery.SoCPercent = 100

	d := p.Compute(in)
	assert.Equal(t, domain.DecisionNoAction, d.Class)
	assert.False(t, d.ShouldChargeNow)
}

func TestOutOfRangeInputsAreClamped(t *testing.T) {
	p := testPlanner(domain.StrategyImmediate)

	in := baseInput(inWindow)
	in.Battery = domain.BatteryState{SoCPercent: 180, CapacityKWh: -5, MaxChargePowerKW: -1}

	d := p.Compute(in)
	assert.Equal(t, 100.0, d.Breakdown.SoCPercent)
	assert.GreaterOrEqual(t, d.TargetSoCPercent, 0.0)
	assert.LessOrEqual(t, d.TargetSoCPercent, 100.0)
}

func TestInvariantsHoldAcrossInputs(t *testing.T) {
	p := testPlanner(domain.StrategyOptimizedTiming)

	times := []time.Time{
		inWindow,
		time.Date(2024, 11, 21, 0, 30, 0, 0, time.UTC),
		time.Date(2024, 11, 21, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 11, 21, 23, 59, 0, 0, time.UTC),
	}
	colors := []domain.TariffColor{domain.TariffNormal, domain.TariffWhite, domain.TariffRed}

	for _, now := range times {
		for _, today := range colors {
			for _, tomorrow := range colors {
				in := baseInput(now)
				in.TariffToday = tariff(now, today)
				in.TariffTomorrow = tariff(now.AddDate(0, 0, 1), tomorrow)

				d := p.Compute(in)
				assert.GreaterOrEqual(t, d.TargetSoCPercent, 0.0)
				assert.LessOrEqual(t, d.TargetSoCPercent, 100.0)
				assert.False(t, d.WindowStart.After(d.WindowEnd))
				if today == domain.TariffRed {
					assert.False(t, d.ShouldChargeNow, "red today must never charge")
				}
			}
		}
	}
}

func TestComputationIsDeterministic(t *testing.T) {
	p := testPlanner(domain.StrategyOptimizedTiming)

	in := baseInput(inWindow)
	in.TariffTomorrow = tariff(inWindow.AddDate(0, 0, 1), domain.TariffWhite)
	sunrise := time.Date(2024, 11, 21, 7, 45, 0, 0, time.UTC)
	in.Forecast.Sunrise = &sunrise
	in.History = []domain.DailyEnergy{
		{Date: inWindow.AddDate(0, 0, -6), EnergyKWh: 12},
		{Date: inWindow.AddDate(0, 0, -13), EnergyKWh: 14},
	}

	d1 := p.Compute(in)
	d2 := p.Compute(in)
	assert.Equal(t, d1, d2)
}
