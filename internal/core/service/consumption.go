package service

import (
	"math"
	"time"

	"chargeplan/internal/core/domain"
)

const (
	// samples outside this band are sensor glitches, not consumption
	CONSUMPTION_SANITY_MIN_KWH = 0.0
	CONSUMPTION_SANITY_MAX_KWH = 1000.0

	DEFAULT_LOOKBACK_DAYS          = 60
	DEFAULT_SEASONAL_LOOKBACK_DAYS = 90
	DEFAULT_FALLBACK_KWH           = 5.0
)

// ConsumptionPredictor estimates a day's consumption by analog-day
// averaging: the mean of recent history restricted to the same weekday,
// optionally further restricted to the same season.
type ConsumptionPredictor struct {
	LookbackDays         int
	SeasonalFilter       bool
	SeasonalLookbackDays int
	// FallbackKWh is returned when no usable sample survives filtering.
	// It is a deliberate safe default, not an error condition.
	FallbackKWh float64
}

func DefaultConsumptionPredictor() ConsumptionPredictor {
	return ConsumptionPredictor{
		LookbackDays:         DEFAULT_LOOKBACK_DAYS,
		SeasonalLookbackDays: DEFAULT_SEASONAL_LOOKBACK_DAYS,
		FallbackKWh:          DEFAULT_FALLBACK_KWH,
	}
}

// Predict returns the estimate in kWh and whether the fallback constant was
// used. Callers must treat a fallback result as low confidence but never as
// a failure.
func (p ConsumptionPredictor) Predict(targetDate time.Time, samples []domain.DailyEnergy) (float64, bool) {
	lookback := p.LookbackDays
	if p.SeasonalFilter {
		lookback = p.SeasonalLookbackDays
	}

	var sum float64
	var count int
	for _, s := range samples {
		if s.Date.Weekday() != targetDate.Weekday() {
			continue
		}
		age := targetDate.Sub(s.Date).Hours() / 24
		if age <= 0 || age > float64(lookback) {
			continue
		}
		if p.SeasonalFilter && !monthNear(s.Date.Month(), targetDate.Month()) {
			continue
		}
		if s.EnergyKWh <= CONSUMPTION_SANITY_MIN_KWH || s.EnergyKWh >= CONSUMPTION_SANITY_MAX_KWH {
			continue
		}
		sum += s.EnergyKWh
		count++
	}

	if count == 0 {
		return p.FallbackKWh, true
	}
	return round2(sum / float64(count)), false
}

// monthNear reports whether a is within one calendar month of b, wrapping
// over the year boundary.
func monthNear(a, b time.Month) bool {
	diff := int(a) - int(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1 || diff == 11
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
