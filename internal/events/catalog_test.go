package events

import (
	"testing"
	"time"

	"chargeplan/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanSensorsCoverAllPlanUpdates(t *testing.T) {
	device := PlannerDevice("chargeplan")
	sensors := PlanSensors(device)

	known := map[string]bool{}
	for _, s := range sensors {
		known[s.Id] = true
	}

	plan := &domain.PlanDecision{
		ComputedAt:  time.Now(),
		Class:       domain.DecisionWindowOpenBelowTarget,
		ChargeStart: time.Now(),
	}
	for _, u := range PlanUpdateEvents(plan) {
		assert.True(t, known[u.SensorId()], "update for undeclared sensor %q", u.SensorId())
	}
}

func TestStorageSensorsCoverAllBatteryUpdates(t *testing.T) {
	device := PlannerDevice("chargeplan")
	sensors := StorageSensors(device)

	known := map[string]bool{}
	for _, s := range sensors {
		known[s.Id] = true
	}

	battery := &domain.BatteryState{
		SoCPercent:   45,
		CapacityKWh:  5,
		ChargeStatus: "charging",
	}
	updates := BatteryUpdateEvents(battery)
	for _, u := range updates {
		assert.True(t, known[u.SensorId()], "update for undeclared sensor %q", u.SensorId())
	}

	var status *domain.TextSensorUpdateEvent
	for _, u := range updates {
		if ev, ok := u.(domain.TextSensorUpdateEvent); ok && ev.SensorId() == SENSOR_ID_BATTERY_STATUS {
			status = &ev
		}
	}
	require.NotNil(t, status)
	assert.Equal(t, "charging", status.Value)
}

func TestUniqueIdsAreUnique(t *testing.T) {
	device := PlannerDevice("chargeplan")

	seen := map[string]bool{}
	for _, s := range PlanSensors(device) {
		require.False(t, seen[s.UniqueId], "duplicated unique id %q", s.UniqueId)
		seen[s.UniqueId] = true
	}
	for _, s := range BridgeSensors(device) {
		require.False(t, seen[s.UniqueId])
		seen[s.UniqueId] = true
	}
	for _, sw := range PlannerSwitches(device) {
		require.False(t, seen[sw.UniqueId])
		seen[sw.UniqueId] = true
	}
	for _, in := range PlannerInputNumbers(device) {
		require.False(t, seen[in.UniqueId])
		seen[in.UniqueId] = true
	}
}

func TestDeviceIdsStableForSameTopic(t *testing.T) {
	assert.Equal(t, PlannerDevice("chargeplan").Id, PlannerDevice("chargeplan").Id)
	assert.NotEqual(t, PlannerDevice("a").Id, PlannerDevice("b").Id)
}

func TestDecisionClassUpdateCarriesString(t *testing.T) {
	plan := &domain.PlanDecision{Class: domain.DecisionNeverCharge}
	var found bool
	for _, u := range PlanUpdateEvents(plan) {
		if u.SensorId() == SENSOR_ID_DECISION_CLASS {
			found = true
			text, ok := u.(domain.TextSensorUpdateEvent)
			require.True(t, ok)
			assert.Equal(t, domain.DecisionNeverCharge.String(), text.Value)
		}
	}
	assert.True(t, found)
}

func TestFilterPlanUpdatesDropsDebugSensors(t *testing.T) {
	plan := &domain.PlanDecision{}
	all := PlanUpdateEvents(plan)

	filtered := FilterPlanUpdates(all, false)
	assert.Less(t, len(filtered), len(all))
	for _, u := range filtered {
		assert.False(t, IsDebugSensor(u.SensorId()))
	}

	assert.Len(t, FilterPlanUpdates(all, true), len(all))
}
