package storage_modbus

func CreateTestStorageModbusReader() (StorageModbusReader, error) {
	return &TestStorageModbusReader{
		SoC:                 45,
		MaxCapacityWattHour: 5000,
		MaxChargePowerWatt:  3840,
	}, nil
}

// TestStorageModbusReader is an in-memory stand-in for a real SunSpec device.
// It records SetGridCharge calls so tests can assert on actuation.
type TestStorageModbusReader struct {
	SoC                 float64
	MaxCapacityWattHour uint32
	MaxChargePowerWatt  uint32

	GridChargeOn    bool
	GridChargePower uint32
	WriteCount      int

	FailWith error
}

func (r *TestStorageModbusReader) Open() error {
	return nil
}

func (r *TestStorageModbusReader) Close() error {
	return nil
}

func (r *TestStorageModbusReader) Validate() error {
	return nil
}

func (r *TestStorageModbusReader) GetInfo() (*StorageInfo, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	return &StorageInfo{
		Manufacturer:          "Chargeplan",
		Model:                 "Bench Storage 5.0",
		Version:               "1.0.0",
		Serial:                "000001",
		MaxChargePowerWatt:    r.MaxChargePowerWatt,
		MaxCapacityWattHour:   r.MaxCapacityWattHour,
		SupportsChargeControl: true,
	}, nil
}

func (r *TestStorageModbusReader) GetStorageState() (*StorageState, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	status := uint16(StorageChargeStatusHolding)
	if r.GridChargeOn {
		status = StorageChargeStatusCharging
	}
	return &StorageState{
		StateOfChargePercent:    r.SoC,
		MaxCapacityWattHour:     r.MaxCapacityWattHour,
		CurrentCapacityWattHour: uint32(r.SoC / 100 * float64(r.MaxCapacityWattHour)),
		MaxChargePowerWatt:      r.MaxChargePowerWatt,
		ChargeStatus:            status,
		ChargeStatusStr:         StorageChargeStatusToString(status),
		GridChargeActive:        r.GridChargeOn,
	}, nil
}

func (r *TestStorageModbusReader) SetGridCharge(enable bool, powerWatt uint32) (bool, error) {
	if r.FailWith != nil {
		return false, r.FailWith
	}
	if enable == r.GridChargeOn && (!enable || powerWatt == r.GridChargePower) {
		return false, nil
	}
	r.GridChargeOn = enable
	r.GridChargePower = powerWatt
	r.WriteCount++
	return true, nil
}
