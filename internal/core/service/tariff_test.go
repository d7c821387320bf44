package service

import (
	"testing"

	"chargeplan/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

var eval = TariffEvaluator{SafetyFloorSoC: 30}

func TestRedTodayAlwaysWins(t *testing.T) {
	// RED today excludes charging even when every other rule would fire
	class := eval.Evaluate(domain.TariffRed, domain.TariffRed, 5, 100, true)
	assert.Equal(t, domain.DecisionNeverCharge, class)
}

func TestRedTomorrowForcesFullChargeInsideWindow(t *testing.T) {
	class := eval.Evaluate(domain.TariffNormal, domain.TariffRed, 95, 80, true)
	assert.Equal(t, domain.DecisionForceFullCharge, class)
}

func TestRedTomorrowOutsideWindowFallsThrough(t *testing.T) {
	class := eval.Evaluate(domain.TariffNormal, domain.TariffRed, 95, 80, false)
	assert.Equal(t, domain.DecisionNoAction, class)
}

func TestSafetyFloorBeatsWindowState(t *testing.T) {
	// below the floor, charge even outside the window
	class := eval.Evaluate(domain.TariffWhite, domain.TariffWhite, 20, 80, false)
	assert.Equal(t, domain.DecisionForceMinSoC, class)
}

func TestWindowOpenBelowTarget(t *testing.T) {
	class := eval.Evaluate(domain.TariffWhite, domain.TariffWhite, 50, 80, true)
	assert.Equal(t, domain.DecisionWindowOpenBelowTarget, class)
}

func TestTargetMetMeansNoAction(t *testing.T) {
	class := eval.Evaluate(domain.TariffWhite, domain.TariffWhite, 80, 80, true)
	assert.Equal(t, domain.DecisionNoAction, class)
}

func TestOutsideWindowMeansNoAction(t *testing.T) {
	class := eval.Evaluate(domain.TariffNormal, domain.TariffNormal, 50, 80, false)
	assert.Equal(t, domain.DecisionNoAction, class)
}
