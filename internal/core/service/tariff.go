package service

import (
	"chargeplan/internal/core/domain"
)

// TariffEvaluator classifies the current situation into one decision class.
// The rules form a strict priority list: the first match wins, magnitudes
// never break ties.
type TariffEvaluator struct {
	// SafetyFloorSoC is the SoC below which charging is forced regardless
	// of the tariff window state.
	SafetyFloorSoC float64
}

// Evaluate runs the priority list. tomorrow must already default to WHITE
// when the calendar has not published tomorrow's entry yet.
//
// NEVER_CHARGE is evaluated first on purpose: a RED day excludes grid
// charging no matter what any other input says.
func (e TariffEvaluator) Evaluate(today, tomorrow domain.TariffColor, socPercent, targetPercent float64, windowOpen bool) domain.DecisionClass {
	switch {
	case today == domain.TariffRed:
		return domain.DecisionNeverCharge
	case tomorrow == domain.TariffRed && windowOpen:
		return domain.DecisionForceFullCharge
	case socPercent < e.SafetyFloorSoC:
		return domain.DecisionForceMinSoC
	case windowOpen && socPercent < targetPercent:
		return domain.DecisionWindowOpenBelowTarget
	default:
		return domain.DecisionNoAction
	}
}
