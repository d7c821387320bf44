package service

import (
	"math"
	"time"
)

const (
	BASE_LOW_PRODUCTION_KWH   = 5.0
	BASE_HIGH_PRODUCTION_KWH  = 15.0
	BASE_LOW_TARGET_PCT       = 100.0
	BASE_HIGH_TARGET_PCT      = 80.0
	DEFAULT_MAX_DEFICIT_ADJUSTMENT_PCT = 50.0
)

// SoCTargetCalculator combines the forecasts into one target SoC for the end
// of the charge window. The computation is deliberately additive and bounded
// per stage so every term's contribution stays independently verifiable.
type SoCTargetCalculator struct {
	// stage switches; a disabled stage contributes 0
	DisableBaseStage    bool
	DisableSunriseStage bool
	DisableDeficitStage bool

	// MaxDeficitAdjustmentPct caps stage 3 against compounding forecast
	// error. Default 50 percentage points.
	MaxDeficitAdjustmentPct float64
	// MinReserveSoC floors the final clamp.
	MinReserveSoC float64
}

type SoCTargetInput struct {
	ProductionKWh         float64
	ConsumptionKWh        float64
	ConsumptionPerHourKWh float64
	CapacityKWh           float64
	Sunrise               *time.Time
	WindowEnd             time.Time
}

type SoCTargetResult struct {
	TargetPct     float64
	BasePct       float64
	GapHours      float64
	SunriseAdjPct float64
	DeficitKWh    float64
	DeficitAdjPct float64
	RawPct        float64
}

// Compute runs the four stages: base target from the production forecast,
// sunrise-gap adjustment, consumption-deficit adjustment, final clamp.
func (c SoCTargetCalculator) Compute(in SoCTargetInput) SoCTargetResult {
	var r SoCTargetResult

	if !c.DisableBaseStage {
		r.BasePct = baseTargetFromProduction(in.ProductionKWh)
	}

	if !c.DisableSunriseStage && in.Sunrise != nil && in.CapacityKWh > 0 {
		gap := in.Sunrise.Sub(in.WindowEnd).Hours()
		r.GapHours = math.Max(0, gap)
		// energy consumed between window close and sunrise, as SoC points
		r.SunriseAdjPct = r.GapHours * in.ConsumptionPerHourKWh / in.CapacityKWh * 100
	}

	if !c.DisableDeficitStage && in.CapacityKWh > 0 {
		r.DeficitKWh = math.Max(0, in.ConsumptionKWh-in.ProductionKWh)
		adj := r.DeficitKWh / in.CapacityKWh * 100
		limit := c.MaxDeficitAdjustmentPct
		if limit <= 0 {
			limit = DEFAULT_MAX_DEFICIT_ADJUSTMENT_PCT
		}
		r.DeficitAdjPct = math.Min(adj, limit)
	}

	r.RawPct = r.BasePct + r.SunriseAdjPct + r.DeficitAdjPct
	r.TargetPct = clamp(r.RawPct, 0, 100)
	if r.TargetPct < c.MinReserveSoC {
		r.TargetPct = clamp(c.MinReserveSoC, 0, 100)
	}
	return r
}

// baseTargetFromProduction interpolates linearly between 100% at <=5 kWh of
// expected production and 80% at >=15 kWh.
func baseTargetFromProduction(productionKWh float64) float64 {
	switch {
	case productionKWh <= BASE_LOW_PRODUCTION_KWH:
		return BASE_LOW_TARGET_PCT
	case productionKWh >= BASE_HIGH_PRODUCTION_KWH:
		return BASE_HIGH_TARGET_PCT
	default:
		frac := (productionKWh - BASE_LOW_PRODUCTION_KWH) / (BASE_HIGH_PRODUCTION_KWH - BASE_LOW_PRODUCTION_KWH)
		return BASE_LOW_TARGET_PCT - frac*(BASE_LOW_TARGET_PCT-BASE_HIGH_TARGET_PCT)
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
