package domain

import (
	"time"

	"chargeplan/pkg/storage_modbus"
)

// Modbus actor messages

type GetStorageInfoRequest struct {
	ActorRequestMixIn
}

type GetStorageInfoResponse struct {
	ActorResponseMixIn
	Info *storage_modbus.StorageInfo
}

type GetStorageStateRequest struct {
	ActorRequestMixIn
}

type GetStorageStateResponse struct {
	ActorResponseMixIn
	Battery *BatteryState
}

type SetGridChargeRequest struct {
	ActorRequestMixIn
	Enable bool
	// PowerWatt caps the charge power while enabled. Zero means the
	// controller's default.
	PowerWatt uint32
}

type SetGridChargeResponse struct {
	ActorResponseMixIn
	// Changed is false when the actuator was already in the requested
	// state, making the call a no-op at the device boundary.
	Changed bool
}

// MQTT actor messages

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors      []GenericSensor
	Switches     []GenericSwitch
	InputNumbers []GenericInputNumber
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

// Input signals routed to the planner. Each one is a change trigger: the
// planner re-runs a full plan computation whenever one arrives.

type TariffSignal struct {
	// Tomorrow is true when the payload announces tomorrow's color.
	Tomorrow bool
	Date     time.Time
	Color    TariffColor
}

type ForecastSignal struct {
	TargetDate             time.Time
	PredictedProductionKWh float64
}

type SunriseSignal struct {
	Sunrise *time.Time
}

// RecomputeTrigger is the scheduled (cron) trigger. Reason distinguishes the
// daily pre-window run, the tariff-cutoff run and the battery poll in logs
// and metrics.
type RecomputeTrigger struct {
	Reason string
}

const (
	TRIGGER_PRE_WINDOW   = "pre_window"
	TRIGGER_CUTOFF       = "cutoff"
	TRIGGER_BATTERY_POLL = "battery_poll"
	TRIGGER_TARIFF       = "tariff_update"
	TRIGGER_FORECAST     = "forecast_update"
	TRIGGER_SUNRISE      = "sunrise_update"
	TRIGGER_MANUAL       = "manual"
	TRIGGER_STARTUP      = "startup"
)

// Planner query surface

type GetPlanRequest struct {
	ActorRequestMixIn
}

type GetPlanResponse struct {
	ActorResponseMixIn
	// Plan is nil until the first computation completes.
	Plan *PlanDecision
}
