package port

import (
	"context"

	"chargeplan/internal/core/domain"
)

// StatsQuery narrows historical daily energy lookups to the samples the
// consumption predictor actually wants: same weekday as the target date,
// within a bounded lookback, optionally restricted to nearby months.
type StatsQuery struct {
	Weekday      int // 0 = Sunday, matching EXTRACT(DOW ...)
	LookbackDays int
	Months       []int // empty means any month
}

type ConsumptionStats interface {
	DailyEnergy(ctx context.Context, query StatsQuery) ([]domain.DailyEnergy, error)
}
