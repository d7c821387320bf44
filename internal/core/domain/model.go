package domain

import (
	"fmt"
	"strings"
	"time"
)

// TariffColor is the calendar color published by the distributor. RED days
// are only announced one day ahead, at a daily cutoff time.
type TariffColor int

const (
	TariffNormal TariffColor = iota
	TariffWhite
	TariffRed
)

func (c TariffColor) String() string {
	switch c {
	case TariffNormal:
		return "normal"
	case TariffWhite:
		return "white"
	case TariffRed:
		return "red"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// ParseTariffColor maps a raw calendar payload to a color. Unknown or empty
// payloads map to WHITE, the pessimistic-safe default: never assume RED, and
// never assume the cheap NORMAL either.
func ParseTariffColor(raw string) TariffColor {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "normal":
		return TariffNormal
	case "white":
		return TariffWhite
	case "red":
		return TariffRed
	default:
		return TariffWhite
	}
}

// TariffDay is immutable once published for a given date.
type TariffDay struct {
	Date  time.Time
	Color TariffColor
}

// ForecastSample holds the normalized next-day forecast. Sunrise is nil when
// the forecast provider did not supply a parsable time.
type ForecastSample struct {
	TargetDate             time.Time
	PredictedProductionKWh float64
	Sunrise                *time.Time
}

// DailyEnergy is one historical consumption sample, one per calendar day.
type DailyEnergy struct {
	Date      time.Time
	EnergyKWh float64
}

// BatteryState is a point-in-time read, never cached across computations.
type BatteryState struct {
	SoCPercent       float64
	CapacityKWh      float64
	MaxChargePowerKW float64
	// ChargeStatus is the device-reported mode string (charging,
	// discharging, holding, ...), telemetry only.
	ChargeStatus string
}

type ChargeStrategy int

const (
	StrategyImmediate ChargeStrategy = iota
	StrategyOptimizedTiming
)

func (s ChargeStrategy) String() string {
	if s == StrategyOptimizedTiming {
		return "optimized_timing"
	}
	return "immediate"
}

func ParseChargeStrategy(raw string) (ChargeStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "immediate":
		return StrategyImmediate, nil
	case "optimized_timing":
		return StrategyOptimizedTiming, nil
	default:
		return StrategyImmediate, fmt.Errorf("unknown charge strategy %q", raw)
	}
}

// DecisionClass is the outcome of the tariff calendar evaluation.
// Precedence is strict: a lower value always wins over a higher one.
type DecisionClass int

const (
	DecisionNeverCharge DecisionClass = iota
	DecisionForceFullCharge
	DecisionForceMinSoC
	DecisionWindowOpenBelowTarget
	DecisionNoAction
)

func (d DecisionClass) String() string {
	switch d {
	case DecisionNeverCharge:
		return "never_charge"
	case DecisionForceFullCharge:
		return "force_full_charge"
	case DecisionForceMinSoC:
		return "force_min_soc"
	case DecisionWindowOpenBelowTarget:
		return "window_open_below_target"
	case DecisionNoAction:
		return "no_action"
	default:
		return fmt.Sprintf("unknown(%d)", int(d))
	}
}

func (c TariffColor) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", c.String())), nil
}

func (s ChargeStrategy) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", s.String())), nil
}

func (d DecisionClass) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", d.String())), nil
}

// ClockTime is a wall-clock time of day, independent of date.
type ClockTime struct {
	Hour   int
	Minute int
}

func ParseClockTime(raw string) (ClockTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(raw), "%d:%d", &h, &m); err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q: %w", raw, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return ClockTime{}, fmt.Errorf("clock time %q out of range", raw)
	}
	return ClockTime{Hour: h, Minute: m}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// At pins the clock time onto the calendar day of t, in t's location.
func (c ClockTime) At(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.Hour, c.Minute, 0, 0, t.Location())
}

// ChargeWindow is the configured low-tariff window. Start must not be after
// End within the same calendar day.
type ChargeWindow struct {
	Start ClockTime
	End   ClockTime
}

// On resolves the window bounds for the calendar day of t.
func (w ChargeWindow) On(t time.Time) (time.Time, time.Time) {
	return w.Start.At(t), w.End.At(t)
}

// Contains reports whether t falls inside the window ([start, end)).
func (w ChargeWindow) Contains(t time.Time) bool {
	start, end := w.On(t)
	return !t.Before(start) && t.Before(end)
}

// PlanBreakdown carries every intermediate value of a plan computation so the
// whole decision can be audited from telemetry.
type PlanBreakdown struct {
	TariffToday             TariffColor `json:"tariff_today"`
	TariffTomorrow          TariffColor `json:"tariff_tomorrow"`
	SoCPercent              float64     `json:"soc_percent"`
	PredictedProductionKWh  float64     `json:"predicted_production_kwh"`
	PredictedConsumptionKWh float64     `json:"predicted_consumption_kwh"`
	ConsumptionFallback     bool        `json:"consumption_fallback"`
	BaseTargetPct           float64     `json:"base_target_pct"`
	SunriseGapHours         float64     `json:"sunrise_gap_hours"`
	SunriseAdjustmentPct    float64     `json:"sunrise_adjustment_pct"`
	DeficitKWh              float64     `json:"deficit_kwh"`
	DeficitAdjustmentPct    float64     `json:"deficit_adjustment_pct"`
	RawTargetPct            float64     `json:"raw_target_pct"`
	EnergyNeededKWh         float64     `json:"energy_needed_kwh"`
	TimeNeededHours         float64     `json:"time_needed_hours"`
	WindowDeficit           bool        `json:"window_deficit"`
}

// PlanDecision is the engine's sole output artifact. It has no persistent
// identity: every computation fully replaces the previous one.
type PlanDecision struct {
	ComputedAt       time.Time      `json:"computed_at"`
	Class            DecisionClass  `json:"decision_class"`
	Strategy         ChargeStrategy `json:"strategy"`
	TargetSoCPercent float64        `json:"target_soc_percent"`
	WindowStart      time.Time      `json:"window_start"`
	WindowEnd        time.Time      `json:"window_end"`
	ChargeStart      time.Time      `json:"charge_start"`
	ShouldChargeNow  bool           `json:"should_charge_now"`
	Breakdown        PlanBreakdown  `json:"breakdown"`
}
