package events

import (
	"time"

	"chargeplan/internal/core/domain"
)

// debugSensorIds are the breakdown intermediates, published as diagnostic
// entities only while debug telemetry is enabled.
var debugSensorIds = map[string]struct{}{
	SENSOR_ID_BASE_TARGET_SOC:    {},
	SENSOR_ID_SUNRISE_GAP_HOURS:  {},
	SENSOR_ID_SUNRISE_ADJUSTMENT: {},
	SENSOR_ID_DEFICIT_ADJUSTMENT: {},
	SENSOR_ID_ENERGY_NEEDED:      {},
}

func IsDebugSensor(id string) bool {
	_, ok := debugSensorIds[id]
	return ok
}

// FilterPlanUpdates drops the debug-only updates when debug telemetry is off.
func FilterPlanUpdates(updates []domain.SensorUpdateEvent, debug bool) []domain.SensorUpdateEvent {
	if debug {
		return updates
	}
	var filtered []domain.SensorUpdateEvent
	for _, u := range updates {
		if !IsDebugSensor(u.SensorId()) {
			filtered = append(filtered, u)
		}
	}
	return filtered
}

// PlanUpdateEvents flattens a computed plan into the sensor updates the MQTT
// adapter publishes. Events carry sensor ids from the catalog, so the set
// here must stay in sync with PlanSensors.
func PlanUpdateEvents(plan *domain.PlanDecision) []domain.SensorUpdateEvent {

	var updates []domain.SensorUpdateEvent

	updates = append(updates, domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: SENSOR_ID_TARGET_SOC},
		Value:                  plan.TargetSoCPercent,
		Decimals:               0,
	})
	updates = append(updates, domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: SENSOR_ID_BASE_TARGET_SOC},
		Value:                  plan.Breakdown.BaseTargetPct,
		Decimals:               0,
	})
	updates = append(updates, domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: SENSOR_ID_SUNRISE_GAP_HOURS},
		Value:                  plan.Breakdown.SunriseGapHours,
		Decimals:               2,
	})
	updates = append(updates, domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: SENSOR_ID_SUNRISE_ADJUSTMENT},
		Value:                  plan.Breakdown.SunriseAdjustmentPct,
		Decimals:               1,
	})
	updates = append(updates, domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: SENSOR_ID_DEFICIT_ADJUSTMENT},
		Value:                  plan.Breakdown.DeficitAdjustmentPct,
		Decimals:               1,
	})
	updates = append(updates, domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: SENSOR_ID_PREDICTED_CONSUMPTION},
		Value:                  plan.Breakdown.PredictedConsumptionKWh,
		Decimals:               2,
	})
	updates = append(updates, domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: SENSOR_ID_PREDICTED_PRODUCTION},
		Value:                  plan.Breakdown.PredictedProductionKWh,
		Decimals:               2,
	})
	updates = append(updates, domain.TextSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: SENSOR_ID_DECISION_CLASS},
		Value:                  plan.Class.String(),
	})
	updates = append(updates, domain.TextSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: SENSOR_ID_PLANNED_CHARGE_START},
		Value:                  plan.ChargeStart.Format(time.RFC3339),
	})
	updates = append(updates, domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: SENSOR_ID_ENERGY_NEEDED},
		Value:                  plan.Breakdown.EnergyNeededKWh,
		Decimals:               2,
	})
	updates = append(updates, domain.BinarySensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: SENSOR_ID_WINDOW_DEFICIT},
		Value:                  plan.Breakdown.WindowDeficit,
	})
	updates = append(updates, domain.BinarySensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: SENSOR_ID_CHARGE_ACTIVE},
		Value:                  plan.ShouldChargeNow,
	})

	return updates
}

// BatteryUpdateEvents maps a battery snapshot to its sensor updates.
func BatteryUpdateEvents(battery *domain.BatteryState) []domain.SensorUpdateEvent {
	if battery == nil {
		return nil
	}
	return []domain.SensorUpdateEvent{
		domain.FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: SENSOR_ID_BATTERY_SOC},
			Value:                  battery.SoCPercent,
			Decimals:               1,
		},
		domain.FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: SENSOR_ID_BATTERY_MAX_CAPACITY},
			Value:                  battery.CapacityKWh,
			Decimals:               2,
		},
		domain.TextSensorUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: SENSOR_ID_BATTERY_STATUS},
			Value:                  battery.ChargeStatus,
		},
	}
}
