package storage_modbus

import (
	"fmt"
)

// storage charge states
const (
	StorageChargeStatusOff         = 1
	StorageChargeStatusEmpty       = 2
	StorageChargeStatusDischarging = 3
	StorageChargeStatusCharging    = 4
	StorageChargeStatusFull        = 5
	StorageChargeStatusHolding     = 6
	StorageChargeStatusTest        = 7
)

// storage charge state strings
const (
	StorageChargeStatusOffStr         = "off"
	StorageChargeStatusEmptyStr       = "empty"
	StorageChargeStatusDischargingStr = "discharging"
	StorageChargeStatusChargingStr    = "charging"
	StorageChargeStatusFullStr        = "full"
	StorageChargeStatusHoldingStr     = "holding"
	StorageChargeStatusTestStr        = "test"
	StorageChargeStatusUnknownStr     = "unknown"
)

func StorageChargeStatusToString(status uint16) string {
	switch status {
	case StorageChargeStatusOff:
		return StorageChargeStatusOffStr
	case StorageChargeStatusEmpty:
		return StorageChargeStatusEmptyStr
	case StorageChargeStatusDischarging:
		return StorageChargeStatusDischargingStr
	case StorageChargeStatusCharging:
		return StorageChargeStatusChargingStr
	case StorageChargeStatusFull:
		return StorageChargeStatusFullStr
	case StorageChargeStatusHolding:
		return StorageChargeStatusHoldingStr
	case StorageChargeStatusTest:
		return StorageChargeStatusTestStr
	default:
		return fmt.Sprintf("%s(%d)", StorageChargeStatusUnknownStr, status)
	}
}

type StorageInfo struct {
	Manufacturer          string
	Model                 string
	Version               string
	Serial                string
	MaxChargePowerWatt    uint32
	MaxCapacityWattHour   uint32
	SupportsChargeControl bool
}

type StorageState struct {
	StateOfChargePercent    float64
	MaxCapacityWattHour     uint32
	CurrentCapacityWattHour uint32
	MaxChargePowerWatt      uint32
	ChargeStatus            uint16
	ChargeStatusStr         string
	GridChargeActive        bool
}

// StorageModbusReader reads battery state and drives grid charging over a
// SunSpec storage model (124). SetGridCharge is idempotent: re-applying the
// state already in effect returns changed = false without touching the wire.
type StorageModbusReader interface {
	Open() error
	Close() error
	Validate() error
	GetInfo() (*StorageInfo, error)
	GetStorageState() (*StorageState, error)
	SetGridCharge(enable bool, powerWatt uint32) (bool, error)
}
