package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHelpersBeforeInitAreNoops(t *testing.T) {
	// recording before Init must not panic, tests spin up readers and
	// planners without the metrics endpoint
	ObserveModbusOp("ReadRegister", time.Millisecond)
	ObservePlanCompute("startup", time.Millisecond)
	IncActuation(nil)
	SetPlanGauges(80, 45, true)
}

func TestObserveModbusOpCountsByFunction(t *testing.T) {
	Init()

	ObserveModbusOp("ReadRegister", 5*time.Millisecond)
	ObserveModbusOp("ReadRegister", time.Millisecond)
	ObserveModbusOp("WriteRegisters", time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(modbusOps.WithLabelValues("ReadRegister")))
	assert.Equal(t, float64(1), testutil.ToFloat64(modbusOps.WithLabelValues("WriteRegisters")))
}
