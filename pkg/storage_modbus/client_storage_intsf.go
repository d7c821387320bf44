package storage_modbus

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

const (
	SUNSPEC_WK_COMMON        = 1
	SUNSPEC_WK_INVERTERS_MIN = 101
	SUNSPEC_WK_INVERTERS_MAX = 103
	SUNSPEC_WK_STATUS        = 122
	SUNSPEC_WK_STORAGE       = 124
)

type storageIntSFModbusBlocks struct {
	common  uint16
	status  uint16
	storage uint16
}

func (blk *storageIntSFModbusBlocks) AllBlocksDefined() bool {
	return blk.common > 0 && blk.status > 0 && blk.storage > 0
}

// StorageIntSFModbusReader talks to a SunSpec device that models its battery
// with integer registers plus scale factors.
type StorageIntSFModbusReader struct {
	ModbusClient

	logger             *zap.Logger
	blocks             storageIntSFModbusBlocks
	expectManufacturer string
	gridChargeOn       bool
	gridChargePower    uint32
}

func (st *StorageIntSFModbusReader) Open() error {
	if err := st.client.Open(); err != nil {
		return err
	}
	if err := st.survey(); err != nil {
		return err
	}
	return nil
}

func (st *StorageIntSFModbusReader) Close() error {
	return st.client.Close()
}

func (st *StorageIntSFModbusReader) Validate() error {
	if st.expectManufacturer != "" {
		str, err := st.readString(st.blocks.common+2, 32)
		if err != nil {
			return err
		}
		if str != st.expectManufacturer {
			return fmt.Errorf("could not find a %s device", st.expectManufacturer)
		}
	}
	conn, err := st.hasStorage()
	if err != nil {
		return err
	}
	if !conn {
		return errors.New("sunspec: no connected storage found")
	}
	return nil
}

func (st *StorageIntSFModbusReader) GetInfo() (*StorageInfo, error) {
	manufacturer, err := st.readString(st.blocks.common+2, 32)
	if err != nil {
		return nil, err
	}
	model, err := st.readString(st.blocks.common+18, 32)
	if err != nil {
		return nil, err
	}
	version, err := st.readString(st.blocks.common+42, 16)
	if err != nil {
		return nil, err
	}
	serial, err := st.readString(st.blocks.common+50, 32)
	if err != nil {
		return nil, err
	}

	regs, err := st.readRegisters(st.blocks.storage+2, 24, modbus.HOLDING_REGISTER)
	if err != nil {
		return nil, err
	}
	maxCharge := st.applySF(regs[0], regs[16])
	maxCap := st.applySF(regs[0], regs[17])

	return &StorageInfo{
		Manufacturer:          manufacturer,
		Model:                 model,
		Version:               version,
		Serial:                serial,
		MaxChargePowerWatt:    uint32(math.Round(maxCharge)),
		MaxCapacityWattHour:   uint32(math.Round(maxCap)),
		SupportsChargeControl: st.blocks.storage > 0,
	}, nil
}

func (st *StorageIntSFModbusReader) GetStorageState() (*StorageState, error) {
	if st.blocks.storage == 0 {
		return nil, errors.New("sunspec: storage block not supported")
	}
	regs, err := st.readRegisters(st.blocks.storage+2, 24, modbus.HOLDING_REGISTER)
	if err != nil {
		return nil, err
	}
	soc := st.applySF(regs[6], regs[20])
	// state off reads a stale SoC value
	if regs[9] == StorageChargeStatusOff {
		soc = 0
	}
	maxCap := st.applySF(regs[0], regs[17])
	maxCharge := st.applySF(regs[0], regs[16])

	return &StorageState{
		StateOfChargePercent:    soc,
		MaxCapacityWattHour:     uint32(math.Round(maxCap)),
		CurrentCapacityWattHour: uint32(math.Round(soc / 100 * maxCap)),
		MaxChargePowerWatt:      uint32(math.Round(maxCharge)),
		ChargeStatus:            regs[9],
		ChargeStatusStr:         StorageChargeStatusToString(regs[9]),
		GridChargeActive:        st.gridChargeOn,
	}, nil
}

// SetGridCharge forces charging from any source at powerWatt or releases the
// control. The last applied state is tracked so repeated calls with the same
// arguments do not hit the wire again.
func (st *StorageIntSFModbusReader) SetGridCharge(enable bool, powerWatt uint32) (bool, error) {
	if enable == st.gridChargeOn && (!enable || powerWatt == st.gridChargePower) {
		return false, nil
	}
	var err error
	if enable {
		err = st.forceChargePower(powerWatt)
	} else {
		err = st.releaseChargeControl()
	}
	if err != nil {
		return false, err
	}
	st.gridChargeOn = enable
	st.gridChargePower = powerWatt
	st.logger.Debug("grid charge applied", zap.Bool("enable", enable), zap.Uint32("power_watt", powerWatt))
	return true, nil
}

func (st *StorageIntSFModbusReader) hasStorage() (bool, error) {
	storageConn, err := st.readRegister(st.blocks.status+3, modbus.HOLDING_REGISTER)
	if err != nil {
		return false, err
	}
	if storageConn&0x0001 == 0 {
		return false, nil
	}
	return st.blocks.storage > 0, nil
}

// forceChargePower writes a minimum charge rate so the battery pulls from the
// grid when PV cannot cover it. Rates are percentages of WChaMax scaled by
// InOutWRte_SF.
func (st *StorageIntSFModbusReader) forceChargePower(powerWatt uint32) error {
	if st.blocks.storage == 0 {
		return errors.New("sunspec: storage block not supported")
	}
	capW, err := st.maxChargeRate()
	if err != nil {
		return err
	}
	if capW <= 0 {
		return errors.New("sunspec: device reports zero max charge rate")
	}
	inoutSF, err := st.readRegister(st.blocks.storage+25, modbus.HOLDING_REGISTER)
	if err != nil {
		return err
	}

	pct := float64(powerWatt) / capW * 100
	if pct > 100 {
		pct = 100
	}
	// negative OutWRte forbids discharge, which is what forces the charge
	outWRte := int16(st.applySFfloat64Inv(-pct, inoutSF))
	inWRte := int16(st.applySFfloat64Inv(100, inoutSF))

	if err := st.writeRegisters(st.blocks.storage+12, []uint16{uint16(outWRte), uint16(inWRte)}); err != nil {
		return err
	}
	// StorCtl_Mod: control both charge and discharge limits
	return st.writeRegister(st.blocks.storage+5, 0x03)
}

func (st *StorageIntSFModbusReader) releaseChargeControl() error {
	if st.blocks.storage == 0 {
		return errors.New("sunspec: storage block not supported")
	}
	inoutSF, err := st.readRegister(st.blocks.storage+25, modbus.HOLDING_REGISTER)
	if err != nil {
		return err
	}
	full := int16(st.applySFfloat64Inv(100, inoutSF))
	if err := st.writeRegisters(st.blocks.storage+12, []uint16{uint16(full), uint16(full)}); err != nil {
		return err
	}
	return st.writeRegister(st.blocks.storage+5, 0x00)
}

func (st *StorageIntSFModbusReader) maxChargeRate() (float64, error) {
	wChaMax, err := st.readRegister(st.blocks.storage+2, modbus.HOLDING_REGISTER)
	if err != nil {
		return 0, err
	}
	wChaMaxSF, err := st.readRegister(st.blocks.storage+18, modbus.HOLDING_REGISTER)
	if err != nil {
		return 0, err
	}
	return st.applySF(wChaMax, wChaMaxSF), nil
}

func (st *StorageIntSFModbusReader) survey() error {

	// check SunSpec preamble
	str, err := st.readString(40000, 4)
	if err != nil {
		return err
	}
	if str != "SunS" {
		return errors.New("could not find a SunSpec device")
	}

	blocks := storageIntSFModbusBlocks{}
	var baseAddr uint16 = 40002
	n := 0
	for {
		block, err := surveyModbusBlock(st.client, baseAddr)
		if err != nil {
			return err
		}
		if block.isEndBlock() {
			break
		}
		switch block.id {
		case SUNSPEC_WK_COMMON:
			blocks.common = block.baseAddr
		case SUNSPEC_WK_STATUS:
			blocks.status = block.baseAddr
		case SUNSPEC_WK_STORAGE:
			blocks.storage = block.baseAddr
		}
		baseAddr = baseAddr + block.length + 2
		// ensure the loop has an ending
		if blocks.AllBlocksDefined() || n > 20 {
			break
		}
		n++
	}
	if blocks.AllBlocksDefined() {
		st.blocks = blocks
		return nil
	}
	return errors.New("could not find all required sunspec blocks (common, status, storage)")
}

type modbusBlock struct {
	id       uint16
	baseAddr uint16
	length   uint16
}

func (block *modbusBlock) isEndBlock() bool {
	return block.id == 0xFFFF
}

func surveyModbusBlock(client *modbus.ModbusClient, baseAddr uint16) (*modbusBlock, error) {
	wellKnownValue, err := client.ReadRegister(baseAddr, modbus.HOLDING_REGISTER)
	if err != nil {
		return nil, err
	}
	length, err := client.ReadRegister(baseAddr+1, modbus.HOLDING_REGISTER)
	if err != nil {
		return nil, err
	}
	return &modbusBlock{
		id:       wellKnownValue,
		length:   length,
		baseAddr: baseAddr,
	}, nil
}

func debugLoggerInstrumentation(logger *zap.Logger) *ModbusInstrument {
	return &ModbusInstrument{
		RecordTime: func(fnName string, readTime time.Duration) {
			logger.Debug("modbus op", zap.String("fn", fnName), zap.Int64("millis", readTime.Milliseconds()))
		},
	}
}

func CreateStorageIntSFModbusReader(ip string, port uint, unitAddress uint8, timeout time.Duration,
	expectManufacturer string, logger *zap.Logger, instrumentation *ModbusInstrument) (StorageModbusReader, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     fmt.Sprintf("tcp://%s:%d", ip, port),
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}

	var inst []ModbusInstrument
	logInst := debugLoggerInstrumentation(logger.With(zap.String("target", "storage"), zap.Uint8("unit", unitAddress)))
	if logInst != nil {
		inst = append(inst, *logInst)
	}
	if instrumentation != nil {
		inst = append(inst, *instrumentation)
	}

	if unitAddress > 0 {
		err = client.SetUnitId(unitAddress)
		if err != nil {
			return nil, err
		}
	}

	reader := StorageIntSFModbusReader{
		ModbusClient: ModbusClient{
			client:     client,
			instrument: inst,
		},
		logger:             logger,
		expectManufacturer: expectManufacturer,
	}
	return &reader, nil
}
