package util

import (
	"chargeplan/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		StorageModbusTcp: config.StorageModbusTCPConfig{
			Host:               "-.-.-.-",
			Port:               502,
			UnitId:             1,
			PollIntervalMillis: 60000,
		},
		MQTT: config.MQTTConfig{
			Host:                "localhost",
			Port:                1883,
			BaseTopic:           "chargeplan",
			TariffTodayTopic:    "energy/tariff/today",
			TariffTomorrowTopic: "energy/tariff/tomorrow",
			ForecastTopic:       "energy/forecast/production",
			SunriseTopic:        "energy/forecast/sunrise",
		},
		Planner: config.PlannerConfig{
			WindowStart:             "02:00",
			WindowEnd:               "06:30",
			CutoffTime:              "20:00",
			Strategy:                "optimized_timing",
			SafetyMarginMinutes:     30,
			LookbackDays:            60,
			FallbackConsumptionKWh:  5.0,
			MinReserveSoC:           30,
			SafetyFloorSoC:          30,
			MaxDeficitAdjustmentPct: 50,
			ChargePowerWatt:         3840,
		},
		Port: 8080,
	}
}
