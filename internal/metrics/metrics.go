package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "chargeplan_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	planComputeTotal   *prometheus.CounterVec
	planComputeLatency prometheus.Histogram

	actuationTotal *prometheus.CounterVec

	targetSoCPercent  prometheus.Gauge
	batterySoCPercent prometheus.Gauge
	chargeActive      prometheus.Gauge

	modbusOps       *prometheus.CounterVec
	modbusOpLatency *prometheus.HistogramVec
)

// Init registers the planner metrics. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		planComputeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "plan_compute_total",
				Help: "Total plan computations by trigger reason",
			},
			[]string{"reason"},
		)
		planComputeLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "plan_compute_latency_seconds",
				Help:    "Plan computation latency in seconds, snapshot included",
				Buckets: prometheus.DefBuckets,
			},
		)

		actuationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "actuation_total",
				Help: "Total grid charge actuations by result",
			},
			[]string{"result"},
		)

		targetSoCPercent = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "target_soc_percent",
				Help: "Target state of charge of the last computed plan",
			},
		)
		batterySoCPercent = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "battery_soc_percent",
				Help: "Last battery state of charge snapshot",
			},
		)
		chargeActive = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "charge_active",
				Help: "1 while the plan says grid charging should be on",
			},
		)

		modbusOps = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "modbus_ops_total",
				Help: "Total modbus register operations by function",
			},
			[]string{"op"},
		)
		modbusOpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "modbus_op_latency_seconds",
				Help:    "Modbus register operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		)

		prometheus.MustRegister(
			planComputeTotal,
			planComputeLatency,
			actuationTotal,
			targetSoCPercent,
			batterySoCPercent,
			chargeActive,
			modbusOps,
			modbusOpLatency,
		)
	})
}

// ObservePlanCompute records one plan computation.
func ObservePlanCompute(reason string, duration time.Duration) {
	if reason == "" {
		reason = "unknown"
	}
	if planComputeTotal != nil {
		planComputeTotal.WithLabelValues(reason).Inc()
	}
	if planComputeLatency != nil {
		planComputeLatency.Observe(duration.Seconds())
	}
}

// IncActuation counts a grid charge actuation attempt.
func IncActuation(err error) {
	if actuationTotal == nil {
		return
	}
	if err != nil {
		actuationTotal.WithLabelValues(resultError).Inc()
	} else {
		actuationTotal.WithLabelValues(resultSuccess).Inc()
	}
}

// SetPlanGauges publishes the headline values of the last plan.
func SetPlanGauges(targetPct, batteryPct float64, charging bool) {
	if targetSoCPercent != nil {
		targetSoCPercent.Set(targetPct)
	}
	if batterySoCPercent != nil {
		batterySoCPercent.Set(batteryPct)
	}
	if chargeActive != nil {
		if charging {
			chargeActive.Set(1)
		} else {
			chargeActive.Set(0)
		}
	}
}

// ObserveModbusOp records one modbus register operation. Its signature
// matches the storage reader instrumentation hook so it can be plugged in
// directly.
func ObserveModbusOp(op string, duration time.Duration) {
	if modbusOps != nil {
		modbusOps.WithLabelValues(op).Inc()
	}
	if modbusOpLatency != nil {
		modbusOpLatency.WithLabelValues(op).Observe(duration.Seconds())
	}
}
