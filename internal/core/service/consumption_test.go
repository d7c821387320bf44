package service

import (
	"testing"
	"time"

	"chargeplan/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// target is a Wednesday
var target = time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC)

func sample(daysAgo int, kwh float64) domain.DailyEnergy {
	return domain.DailyEnergy{
		Date:      target.AddDate(0, 0, -daysAgo),
		EnergyKWh: kwh,
	}
}

func TestPredictAveragesSameWeekdayOnly(t *testing.T) {
	p := DefaultConsumptionPredictor()

	samples := []domain.DailyEnergy{
		sample(7, 10),  // Wednesday
		sample(14, 12), // Wednesday
		sample(6, 99),  // Thursday, must be ignored
		sample(1, 99),  // Tuesday, must be ignored
	}

	v, fallback := p.Predict(target, samples)
	require.False(t, fallback)
	assert.InDelta(t, 11.0, v, 1e-9)
}

func TestPredictRespectsLookback(t *testing.T) {
	p := DefaultConsumptionPredictor()

	samples := []domain.DailyEnergy{
		sample(7, 10),
		sample(63, 500), // same weekday but older than 60 days
	}

	v, fallback := p.Predict(target, samples)
	require.False(t, fallback)
	assert.InDelta(t, 10.0, v, 1e-9)
}

func TestPredictDiscardsGlitches(t *testing.T) {
	p := DefaultConsumptionPredictor()

	samples := []domain.DailyEnergy{
		sample(7, 10),
		sample(14, 0),    // zero reading
		sample(21, -3),   // negative reading
		sample(28, 1500), // outside sanity band
	}

	v, fallback := p.Predict(target, samples)
	require.False(t, fallback)
	assert.InDelta(t, 10.0, v, 1e-9)
}

func TestPredictFallbackOnEmptySet(t *testing.T) {
	p := DefaultConsumptionPredictor()

	v, fallback := p.Predict(target, nil)
	assert.True(t, fallback)
	assert.Equal(t, 5.0, v)

	// samples exist but none survives the weekday filter
	v, fallback = p.Predict(target, []domain.DailyEnergy{sample(1, 10), sample(2, 10)})
	assert.True(t, fallback)
	assert.Equal(t, 5.0, v)
}

func TestPredictRoundsToTwoDecimals(t *testing.T) {
	p := DefaultConsumptionPredictor()

	samples := []domain.DailyEnergy{
		sample(7, 10),
		sample(14, 10),
		sample(21, 11),
	}

	v, fallback := p.Predict(target, samples)
	require.False(t, fallback)
	assert.Equal(t, 10.33, v)
}

func TestSeasonalVariantFiltersByMonth(t *testing.T) {
	p := DefaultConsumptionPredictor()
	p.SeasonalFilter = true

	samples := []domain.DailyEnergy{
		sample(7, 10),  // November
		sample(70, 50), // September: within 90-day lookback, wrong month
	}

	v, fallback := p.Predict(target, samples)
	require.False(t, fallback)
	assert.InDelta(t, 10.0, v, 1e-9)
}

func TestSeasonalVariantSharesFallbackPolicy(t *testing.T) {
	p := DefaultConsumptionPredictor()
	p.SeasonalFilter = true

	// only out-of-season samples: same fallback as the plain variant
	v, fallback := p.Predict(target, []domain.DailyEnergy{sample(70, 50)})
	assert.True(t, fallback)
	assert.Equal(t, 5.0, v)
}

func TestMonthNearWrapsYearBoundary(t *testing.T) {
	assert.True(t, monthNear(time.December, time.January))
	assert.True(t, monthNear(time.January, time.December))
	assert.False(t, monthNear(time.November, time.January))
}

func TestConfigurableFallback(t *testing.T) {
	p := DefaultConsumptionPredictor()
	p.FallbackKWh = 7.5

	v, fallback := p.Predict(target, nil)
	assert.True(t, fallback)
	assert.Equal(t, 7.5, v)
}
