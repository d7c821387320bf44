package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func calc() SoCTargetCalculator {
	return SoCTargetCalculator{
		MaxDeficitAdjustmentPct: 50,
	}
}

var windowEnd = time.Date(2024, 11, 21, 6, 30, 0, 0, time.UTC)

func TestBaseTargetInterpolation(t *testing.T) {
	assert.Equal(t, 100.0, baseTargetFromProduction(0))
	assert.Equal(t, 100.0, baseTargetFromProduction(5))
	assert.Equal(t, 80.0, baseTargetFromProduction(15))
	assert.Equal(t, 80.0, baseTargetFromProduction(40))
	assert.InDelta(t, 90.0, baseTargetFromProduction(10), 1e-9)
	assert.InDelta(t, 94.0, baseTargetFromProduction(8), 1e-9)
}

// Worked example: every stage contributes and the final clamp engages.
func TestAllStagesWithFinalClamp(t *testing.T) {
	sunrise := windowEnd.Add(time.Duration(1.75 * float64(time.Hour)))

	r := calc().Compute(SoCTargetInput{
		ProductionKWh:         8,
		ConsumptionKWh:        15,
		ConsumptionPerHourKWh: 1,
		CapacityKWh:           5,
		Sunrise:               &sunrise,
		WindowEnd:             windowEnd,
	})

	assert.InDelta(t, 94.0, r.BasePct, 1e-9)
	assert.InDelta(t, 1.75, r.GapHours, 1e-9)
	assert.InDelta(t, 35.0, r.SunriseAdjPct, 1e-9)
	assert.InDelta(t, 7.0, r.DeficitKWh, 1e-9)
	assert.InDelta(t, 50.0, r.DeficitAdjPct, 1e-9) // 140 capped at 50
	assert.InDelta(t, 179.0, r.RawPct, 1e-9)
	assert.Equal(t, 100.0, r.TargetPct)
}

func TestDeficitAdjustmentNeverExceedsCap(t *testing.T) {
	for _, deficit := range []float64{0, 1, 10, 100, 10000} {
		r := calc().Compute(SoCTargetInput{
			ProductionKWh:  0,
			ConsumptionKWh: deficit,
			CapacityKWh:    5,
			WindowEnd:      windowEnd,
		})
		assert.LessOrEqual(t, r.DeficitAdjPct, 50.0, "deficit=%f", deficit)
		assert.GreaterOrEqual(t, r.DeficitAdjPct, 0.0)
	}
}

func TestSunriseBeforeWindowEndIsNoGap(t *testing.T) {
	sunrise := windowEnd.Add(-30 * time.Minute)

	r := calc().Compute(SoCTargetInput{
		ProductionKWh:         20,
		ConsumptionPerHourKWh: 1,
		CapacityKWh:           5,
		Sunrise:               &sunrise,
		WindowEnd:             windowEnd,
	})

	assert.Equal(t, 0.0, r.GapHours)
	assert.Equal(t, 0.0, r.SunriseAdjPct)
}

func TestMissingSunriseMeansNoAdjustment(t *testing.T) {
	r := calc().Compute(SoCTargetInput{
		ProductionKWh:         20,
		ConsumptionPerHourKWh: 1,
		CapacityKWh:           5,
		Sunrise:               nil,
		WindowEnd:             windowEnd,
	})
	assert.Equal(t, 0.0, r.SunriseAdjPct)
}

func TestDisabledStagesContributeZero(t *testing.T) {
	sunrise := windowEnd.Add(2 * time.Hour)
	in := SoCTargetInput{
		ProductionKWh:         8,
		ConsumptionKWh:        15,
		ConsumptionPerHourKWh: 1,
		CapacityKWh:           5,
		Sunrise:               &sunrise,
		WindowEnd:             windowEnd,
	}

	c := calc()
	c.DisableBaseStage = true
	c.DisableSunriseStage = true
	c.DisableDeficitStage = true

	r := c.Compute(in)
	assert.Equal(t, 0.0, r.BasePct)
	assert.Equal(t, 0.0, r.SunriseAdjPct)
	assert.Equal(t, 0.0, r.DeficitAdjPct)
	assert.Equal(t, 0.0, r.TargetPct)
}

func TestMinReserveFloorsTarget(t *testing.T) {
	c := calc()
	c.DisableBaseStage = true
	c.DisableSunriseStage = true
	c.DisableDeficitStage = true
	c.MinReserveSoC = 30

	r := c.Compute(SoCTargetInput{CapacityKWh: 5, WindowEnd: windowEnd})
	assert.Equal(t, 30.0, r.TargetPct)
}

func TestTargetAlwaysInRange(t *testing.T) {
	sunrise := windowEnd.Add(12 * time.Hour)
	for _, prod := range []float64{0, 5, 10, 100} {
		for _, cons := range []float64{0, 10, 500} {
			r := calc().Compute(SoCTargetInput{
				ProductionKWh:         prod,
				ConsumptionKWh:        cons,
				ConsumptionPerHourKWh: cons / 24,
				CapacityKWh:           5,
				Sunrise:               &sunrise,
				WindowEnd:             windowEnd,
			})
			assert.GreaterOrEqual(t, r.TargetPct, 0.0)
			assert.LessOrEqual(t, r.TargetPct, 100.0)
		}
	}
}

func TestZeroCapacitySkipsRelativeStages(t *testing.T) {
	sunrise := windowEnd.Add(2 * time.Hour)
	r := calc().Compute(SoCTargetInput{
		ProductionKWh:         8,
		ConsumptionKWh:        15,
		ConsumptionPerHourKWh: 1,
		CapacityKWh:           0,
		Sunrise:               &sunrise,
		WindowEnd:             windowEnd,
	})
	assert.Equal(t, 0.0, r.SunriseAdjPct)
	assert.Equal(t, 0.0, r.DeficitAdjPct)
	assert.InDelta(t, 94.0, r.TargetPct, 1e-9)
}
