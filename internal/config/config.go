package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel         zapcore.Level
	StorageModbusTcp StorageModbusTCPConfig `mapstructure:"storage_modbus_tcp"`
	MQTT             MQTTConfig             `mapstructure:"mqtt"`
	StatsDB          StatsDBConfig          `mapstructure:"stats_db"`
	Planner          PlannerConfig          `mapstructure:"planner"`

	Port    uint `mapstructure:"port"`
	HttpLog bool `mapstructure:"http_log"`
}

type StorageModbusTCPConfig struct {
	Host               string
	Port               uint
	UnitId             uint   `mapstructure:"unit_id"`
	Manufacturer       string // empty skips the manufacturer check
	PollIntervalMillis uint32 `mapstructure:"poll_interval_millis"`
}

type StatsDBConfig struct {
	DSN      string `mapstructure:"dsn"`
	EntityId string `mapstructure:"entity_id"`
	Table    string
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`

	// input signal topics, published by whatever automation owns the data
	TariffTodayTopic    string `mapstructure:"tariff_today_topic"`
	TariffTomorrowTopic string `mapstructure:"tariff_tomorrow_topic"`
	ForecastTopic       string `mapstructure:"forecast_topic"`
	SunriseTopic        string `mapstructure:"sunrise_topic"`
}

type PlannerConfig struct {
	WindowStart             string  `mapstructure:"window_start"`
	WindowEnd               string  `mapstructure:"window_end"`
	CutoffTime              string  `mapstructure:"cutoff_time"`
	Strategy                string  `mapstructure:"strategy"`
	SafetyMarginMinutes     uint    `mapstructure:"safety_margin_minutes"`
	LookbackDays            int     `mapstructure:"lookback_days"`
	SeasonalFilter          bool    `mapstructure:"seasonal_filter"`
	FallbackConsumptionKWh  float64 `mapstructure:"fallback_consumption_kwh"`
	MinReserveSoC           float64 `mapstructure:"min_reserve_soc"`
	SafetyFloorSoC          float64 `mapstructure:"safety_floor_soc"`
	MaxDeficitAdjustmentPct float64 `mapstructure:"max_deficit_adjustment_pct"`
	ChargePowerWatt         uint32  `mapstructure:"charge_power_watt"`
	DebugTelemetry          bool    `mapstructure:"debug_telemetry"`
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

// CheckClockTime validates a HH:MM string the planner config uses for window
// bounds and the cutoff.
func CheckClockTime(value string) (string, error) {
	clockRegexp := regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)
	if !clockRegexp.MatchString(value) {
		return "", fmt.Errorf("invalid clock time %q. expected HH:MM", value)
	}
	return value, nil
}
