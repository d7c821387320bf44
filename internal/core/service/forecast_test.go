package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeProduction(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"12.34", 12.34},
		{" 7 ", 7},
		{"12.3 kWh", 12.3},
		{"0", 0},
		{"", 0},
		{"unknown", 0},
		{"unavailable", 0},
		{"-4.2", 0}, // negative production is a provider glitch
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeProduction(c.raw), "raw=%q", c.raw)
	}
}

func TestNormalizeSunriseRFC3339(t *testing.T) {
	ref := time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC)

	got := NormalizeSunrise("2024-11-21T07:32:00+01:00", ref)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 11, 21, 6, 32, 0, 0, time.UTC), *got)
}

func TestNormalizeSunriseClockTime(t *testing.T) {
	ref := time.Date(2024, 11, 20, 12, 0, 0, 0, time.UTC)

	got := NormalizeSunrise("07:32", ref)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 11, 20, 7, 32, 0, 0, time.UTC), *got)

	got = NormalizeSunrise("07:32:15", ref)
	require.NotNil(t, got)
	assert.Equal(t, 15, got.Second())
}

func TestNormalizeSunriseGarbageIsNil(t *testing.T) {
	ref := time.Now()
	assert.Nil(t, NormalizeSunrise("", ref))
	assert.Nil(t, NormalizeSunrise("unknown", ref))
	assert.Nil(t, NormalizeSunrise("25:99", ref))
}
