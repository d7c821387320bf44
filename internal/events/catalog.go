package events

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"chargeplan/internal/core/domain"
	"chargeplan/pkg/storage_modbus"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE          = "bridge"
	SENSOR_ID_TARGET_SOC            = "target_soc"
	SENSOR_ID_BASE_TARGET_SOC       = "base_target_soc"
	SENSOR_ID_SUNRISE_GAP_HOURS     = "sunrise_gap_hours"
	SENSOR_ID_SUNRISE_ADJUSTMENT    = "sunrise_adjustment"
	SENSOR_ID_DEFICIT_ADJUSTMENT    = "deficit_adjustment"
	SENSOR_ID_PREDICTED_CONSUMPTION = "predicted_consumption"
	SENSOR_ID_PREDICTED_PRODUCTION  = "predicted_production"
	SENSOR_ID_DECISION_CLASS        = "decision_class"
	SENSOR_ID_PLANNED_CHARGE_START  = "planned_charge_start"
	SENSOR_ID_ENERGY_NEEDED         = "energy_needed"
	SENSOR_ID_WINDOW_DEFICIT        = "window_deficit"
	SENSOR_ID_CHARGE_ACTIVE         = "charge_active"
	SENSOR_ID_BATTERY_SOC           = "battery_soc"
	SENSOR_ID_BATTERY_MAX_CAPACITY  = "battery_max_capacity"
	SENSOR_ID_BATTERY_STATUS        = "battery_status"
	SENSOR_ID_ACTUATION_ERROR       = "actuation_error"

	SWITCH_ID_GRID_CHARGE_OVERRIDE  = "grid_charge_override"
	INPUT_NUMBER_ID_MIN_RESERVE_SOC = "min_reserve_soc"

	STATE_CLASS_MEASUREMENT   = "measurement"
	DEVICE_CLASS_BATTERY      = "battery"
	DEVICE_CLASS_ENERGY       = "energy"
	DEVICE_CLASS_DURATION     = "duration"
	DEVICE_CLASS_TIMESTAMP    = "timestamp"
	DEVICE_CLASS_POWER        = "power"
	DEVICE_CLASS_PROBLEM      = "problem"
	DEVICE_CLASS_CONNECTIVITY = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC   = "diagnostic"
	ENTITY_CLASS_CONFIG       = "config"
	SENSOR_TYPE_SENSOR        = "sensor"
	SENSOR_TYPE_BINARY        = "binary_sensor"
	INPUT_NUMBER_MODE_BOX     = "box"
)

func PlannerDevice(baseTopic string) domain.Device {
	return domain.Device{
		Id:           fmt.Sprintf("chargeplan_%s", md5HashShort(baseTopic)),
		Manufacturer: "Chargeplan",
		Model:        "Charge Planner",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Chargeplan %s", md5HashShort(baseTopic)),
	}
}

func StorageDevice(info *storage_modbus.StorageInfo) domain.Device {
	return domain.Device{
		Id:           fmt.Sprintf("cp_storage_%s", md5HashShort(info.Serial)),
		Version:      info.Version,
		Manufacturer: info.Manufacturer,
		Model:        info.Model,
		Name:         fmt.Sprintf("%s %s %s", info.Manufacturer, info.Model, md5HashShort(info.Serial)),
	}
}

func IdDevice(device domain.Device) domain.Device {
	return domain.Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

// PlanSensors lists the entities that describe the latest plan. The
// breakdown intermediates ship as diagnostic entities so a dashboard can
// stay uncluttered by default.
func PlanSensors(device domain.Device) []domain.GenericSensor {

	var sensors []domain.GenericSensor

	sensors = append(sensors, domain.GenericSensor{
		Device:            device,
		Id:                SENSOR_ID_TARGET_SOC,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Charge target SoC",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_BATTERY,
		UnitOfMeasurement: "%",
		UniqueId:          uniqueId(device.Id, SENSOR_ID_TARGET_SOC),
	})

	sensors = append(sensors, domain.GenericSensor{
		Device:            device,
		Id:                SENSOR_ID_BASE_TARGET_SOC,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Base target SoC",
		StateClass:        STATE_CLASS_MEASUREMENT,
		UnitOfMeasurement: "%",
		EntityCategory:    ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:          uniqueId(device.Id, SENSOR_ID_BASE_TARGET_SOC),
	})

	sensors = append(sensors, domain.GenericSensor{
		Device:            device,
		Id:                SENSOR_ID_SUNRISE_GAP_HOURS,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Sunrise gap",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_DURATION,
		UnitOfMeasurement: "h",
		EntityCategory:    ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:          uniqueId(device.Id, SENSOR_ID_SUNRISE_GAP_HOURS),
	})

	sensors = append(sensors, domain.GenericSensor{
		Device:            device,
		Id:                SENSOR_ID_SUNRISE_ADJUSTMENT,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Sunrise adjustment",
		StateClass:        STATE_CLASS_MEASUREMENT,
		UnitOfMeasurement: "%",
		EntityCategory:    ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:          uniqueId(device.Id, SENSOR_ID_SUNRISE_ADJUSTMENT),
	})

	sensors = append(sensors, domain.GenericSensor{
		Device:            device,
		Id:                SENSOR_ID_DEFICIT_ADJUSTMENT,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Deficit adjustment",
		StateClass:        STATE_CLASS_MEASUREMENT,
		UnitOfMeasurement: "%",
		EntityCategory:    ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:          uniqueId(device.Id, SENSOR_ID_DEFICIT_ADJUSTMENT),
	})

	sensors = append(sensors, domain.GenericSensor{
		Device:            device,
		Id:                SENSOR_ID_PREDICTED_CONSUMPTION,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Predicted consumption",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_ENERGY,
		UnitOfMeasurement: "kWh",
		UniqueId:          uniqueId(device.Id, SENSOR_ID_PREDICTED_CONSUMPTION),
	})

	sensors = append(sensors, domain.GenericSensor{
		Device:            device,
		Id:                SENSOR_ID_PREDICTED_PRODUCTION,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Predicted production",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_ENERGY,
		UnitOfMeasurement: "kWh",
		Icon:              "mdi:solar-power",
		UniqueId:          uniqueId(device.Id, SENSOR_ID_PREDICTED_PRODUCTION),
	})

	sensors = append(sensors, domain.GenericSensor{
		Device:     device,
		Id:         SENSOR_ID_DECISION_CLASS,
		SensorType: SENSOR_TYPE_SENSOR,
		Name:       "Decision class",
		UniqueId:   uniqueId(device.Id, SENSOR_ID_DECISION_CLASS),
	})

	sensors = append(sensors, domain.GenericSensor{
		Device:      device,
		Id:          SENSOR_ID_PLANNED_CHARGE_START,
		SensorType:  SENSOR_TYPE_SENSOR,
		Name:        "Planned charge start",
		DeviceClass: DEVICE_CLASS_TIMESTAMP,
		Icon:        "mdi:clock-start",
		UniqueId:    uniqueId(device.Id, SENSOR_ID_PLANNED_CHARGE_START),
	})

	sensors = append(sensors, domain.GenericSensor{
		Device:            device,
		Id:                SENSOR_ID_ENERGY_NEEDED,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Energy needed",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_ENERGY,
		UnitOfMeasurement: "kWh",
		EntityCategory:    ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:          uniqueId(device.Id, SENSOR_ID_ENERGY_NEEDED),
	})

	sensors = append(sensors, domain.GenericSensor{
		Device:      device,
		Id:          SENSOR_ID_WINDOW_DEFICIT,
		SensorType:  SENSOR_TYPE_BINARY,
		Name:        "Window deficit",
		DeviceClass: DEVICE_CLASS_PROBLEM,
		UniqueId:    uniqueId(device.Id, SENSOR_ID_WINDOW_DEFICIT),
	})

	sensors = append(sensors, domain.GenericSensor{
		Device:      device,
		Id:          SENSOR_ID_CHARGE_ACTIVE,
		SensorType:  SENSOR_TYPE_BINARY,
		Name:        "Grid charge active",
		DeviceClass: DEVICE_CLASS_POWER,
		Icon:        "mdi:battery-charging",
		UniqueId:    uniqueId(device.Id, SENSOR_ID_CHARGE_ACTIVE),
	})

	sensors = append(sensors, domain.GenericSensor{
		Device:         device,
		Id:             SENSOR_ID_ACTUATION_ERROR,
		SensorType:     SENSOR_TYPE_SENSOR,
		Name:           "Actuation error",
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		Icon:           "mdi:alert-circle-outline",
		UniqueId:       uniqueId(device.Id, SENSOR_ID_ACTUATION_ERROR),
	})

	return sensors
}

func StorageSensors(device domain.Device) []domain.GenericSensor {

	var sensors []domain.GenericSensor

	sensors = append(sensors, domain.GenericSensor{
		Device:            device,
		Id:                SENSOR_ID_BATTERY_SOC,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Battery SoC",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_BATTERY,
		UnitOfMeasurement: "%",
		UniqueId:          uniqueId(device.Id, SENSOR_ID_BATTERY_SOC),
	})

	sensors = append(sensors, domain.GenericSensor{
		Device:            device,
		Id:                SENSOR_ID_BATTERY_MAX_CAPACITY,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Battery max capacity",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_ENERGY,
		UnitOfMeasurement: "kWh",
		UniqueId:          uniqueId(device.Id, SENSOR_ID_BATTERY_MAX_CAPACITY),
	})

	sensors = append(sensors, domain.GenericSensor{
		Device:     device,
		Id:         SENSOR_ID_BATTERY_STATUS,
		SensorType: SENSOR_TYPE_SENSOR,
		Name:       "Battery status",
		Icon:       "mdi:battery-heart-variant",
		UniqueId:   uniqueId(device.Id, SENSOR_ID_BATTERY_STATUS),
	})

	return sensors
}

func BridgeSensors(device domain.Device) []domain.GenericSensor {

	var sensors []domain.GenericSensor

	sensors = append(sensors, domain.GenericSensor{
		Device:         device,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(device.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

func PlannerSwitches(device domain.Device) []domain.GenericSwitch {

	var switches []domain.GenericSwitch

	switches = append(switches, domain.GenericSwitch{
		Device:   device,
		Id:       SWITCH_ID_GRID_CHARGE_OVERRIDE,
		Name:     "Grid charge override",
		UniqueId: uniqueId(device.Id, SWITCH_ID_GRID_CHARGE_OVERRIDE),
		Icon:     "mdi:battery-plus",
	})

	return switches
}

func PlannerInputNumbers(device domain.Device) []domain.GenericInputNumber {

	var inputNumbers []domain.GenericInputNumber

	inputNumbers = append(inputNumbers, domain.GenericInputNumber{
		Device:       device,
		Id:           INPUT_NUMBER_ID_MIN_RESERVE_SOC,
		Name:         "Min reserve SoC",
		UniqueId:     uniqueId(device.Id, INPUT_NUMBER_ID_MIN_RESERVE_SOC),
		Icon:         "mdi:battery-lock",
		Max:          100,
		Min:          0,
		Step:         5,
		Mode:         INPUT_NUMBER_MODE_BOX,
		InitialValue: 30,
	})

	return inputNumbers
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}
