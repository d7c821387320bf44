package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "chargeplan/internal/adapter/actor"
	"chargeplan/internal/adapter/stats"
	"chargeplan/internal/config"
	"chargeplan/internal/core/actor"
	"chargeplan/internal/core/domain"
	"chargeplan/internal/core/port"
	"chargeplan/internal/metrics"
	"chargeplan/internal/server"
	"chargeplan/internal/util/actorutil"
	"chargeplan/pkg/storage_modbus"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/job"
	"github.com/reugn/go-quartz/quartz"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	metrics.Init()

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	// consumption stats store (optional)
	statsStore, err := statsProvider(cfg, logger)
	if err != nil {
		panic(err)
	}

	modbusProvider, err := modbusActorProvider(cfg, logger)
	if err != nil {
		panic(err)
	}

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg,
			modbusProvider,
			mqttActorProvider(cfg, logger),
			plannerActorProvider(cfg, statsStore, logger),
			logger)
	})
	pid, err := ctx.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	if err != nil {
		return
	}

	// recompute schedule
	sched, err := startScheduler(cfg, ctx, pid)
	if err != nil {
		panic(err)
	}
	defer sched.Stop()

	server := server.NewServer(*cfg, ctx, pid)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => CHARGEPLAN_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("CHARGEPLAN_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("chargeplan")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := config.CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return nil, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	// check charge window and cutoff times
	windowStart, err := config.CheckClockTime(cfg.Planner.WindowStart)
	if err != nil {
		return nil, errors.New("config param planner.window_start must be a HH:MM time")
	}
	windowEnd, err := config.CheckClockTime(cfg.Planner.WindowEnd)
	if err != nil {
		return nil, errors.New("config param planner.window_end must be a HH:MM time")
	}
	if _, err := config.CheckClockTime(cfg.Planner.CutoffTime); err != nil {
		return nil, errors.New("config param planner.cutoff_time must be a HH:MM time")
	}
	ws, _ := domain.ParseClockTime(windowStart)
	we, _ := domain.ParseClockTime(windowEnd)
	if we.Hour*60+we.Minute <= ws.Hour*60+ws.Minute {
		return nil, errors.New("config param planner.window_end must be after planner.window_start")
	}
	if _, err := domain.ParseChargeStrategy(cfg.Planner.Strategy); err != nil {
		return nil, errors.New("config param planner.strategy must be immediate or optimized_timing")
	}

	// check bounds
	if cfg.Planner.MinReserveSoC < 0 || cfg.Planner.MinReserveSoC > 100 {
		return nil, errors.New("config param planner.min_reserve_soc must be within [0, 100]")
	}
	if cfg.Planner.SafetyFloorSoC < 0 || cfg.Planner.SafetyFloorSoC > 100 {
		return nil, errors.New("config param planner.safety_floor_soc must be within [0, 100]")
	}
	if cfg.Planner.ChargePowerWatt == 0 {
		return nil, errors.New("config param planner.charge_power_watt must be > 0")
	}
	if cfg.StorageModbusTcp.PollIntervalMillis < 1000 {
		return nil, errors.New("config param storage_modbus_tcp.poll_interval_millis should be >= 1000")
	}

	return &cfg, nil
}

func modbusActorProvider(cfg *config.Config, logger *zap.Logger) (actor.ModbusActorProvider, error) {

	instrument := &storage_modbus.ModbusInstrument{
		RecordTime: metrics.ObserveModbusOp,
	}
	reader, err := storage_modbus.CreateStorageIntSFModbusReader(cfg.StorageModbusTcp.Host,
		cfg.StorageModbusTcp.Port, uint8(cfg.StorageModbusTcp.UnitId), 1*time.Second,
		cfg.StorageModbusTcp.Manufacturer, logger, instrument)

	if err != nil {
		return nil, err
	}

	return func() *adactor.ModbusActor {
		return adactor.NewModbusActor(reader, cfg.Planner.ChargePowerWatt, logger)
	}, nil
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func() *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, logger)
	}
}

func plannerActorProvider(cfg *config.Config, statsStore port.ConsumptionStats, logger *zap.Logger) actor.PlannerActorProvider {
	return func(modbusActor, mqttActor *pactor.PID) *actor.PlannerActor {
		return actor.NewPlannerActor(cfg, modbusActor, mqttActor, statsStore, logger)
	}
}

func statsProvider(cfg *config.Config, logger *zap.Logger) (port.ConsumptionStats, error) {
	if cfg.StatsDB.DSN == "" {
		logger.Warn("no stats DB configured, consumption predictor will use the fallback constant")
		return nil, nil
	}
	var opts []stats.Option
	if cfg.StatsDB.Table != "" {
		opts = append(opts, stats.WithTable(cfg.StatsDB.Table))
	}
	return stats.OpenPostgresStats(cfg.StatsDB.DSN, cfg.StatsDB.EntityId, opts...)
}

// startScheduler registers the periodic recompute triggers: one at the
// charge window start, one at the tariff publication cutoff, and a steady
// battery poll in between.
func startScheduler(cfg *config.Config, ctx *pactor.RootContext, master *pactor.PID) (quartz.Scheduler, error) {
	sched := quartz.NewStdScheduler()
	sched.Start(context.Background())

	windowStart, _ := domain.ParseClockTime(cfg.Planner.WindowStart)
	cutoff, _ := domain.ParseClockTime(cfg.Planner.CutoffTime)

	triggers := []struct {
		name   string
		reason string
		cron   string
	}{
		{"pre_window", domain.TRIGGER_PRE_WINDOW, cronAt(windowStart)},
		{"cutoff", domain.TRIGGER_CUTOFF, cronAt(cutoff)},
	}
	for _, trg := range triggers {
		cronTrigger, err := quartz.NewCronTrigger(trg.cron)
		if err != nil {
			return nil, err
		}
		reason := trg.reason
		err = sched.ScheduleJob(quartz.NewJobDetail(job.NewFunctionJob(func(_ context.Context) (bool, error) {
			ctx.Send(master, domain.RecomputeTrigger{Reason: reason})
			return true, nil
		}), quartz.NewJobKey(trg.name)), cronTrigger)
		if err != nil {
			return nil, err
		}
	}

	pollTrigger := quartz.NewSimpleTrigger(time.Duration(cfg.StorageModbusTcp.PollIntervalMillis) * time.Millisecond)
	err := sched.ScheduleJob(quartz.NewJobDetail(job.NewFunctionJob(func(_ context.Context) (bool, error) {
		ctx.Send(master, domain.RecomputeTrigger{Reason: domain.TRIGGER_BATTERY_POLL})
		return true, nil
	}), quartz.NewJobKey("battery_poll")), pollTrigger)
	if err != nil {
		return nil, err
	}

	return sched, nil
}

func cronAt(t domain.ClockTime) string {
	return fmt.Sprintf("0 %d %d * * *", t.Minute, t.Hour)
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.base_topic", "chargeplan")
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	viper.SetDefault("storage_modbus_tcp.poll_interval_millis", 60000)
	viper.SetDefault("planner.window_start", "02:00")
	viper.SetDefault("planner.window_end", "06:30")
	viper.SetDefault("planner.cutoff_time", "20:00")
	viper.SetDefault("planner.strategy", "optimized_timing")
	viper.SetDefault("planner.safety_margin_minutes", 30)
	viper.SetDefault("planner.lookback_days", 60)
	viper.SetDefault("planner.seasonal_filter", false)
	viper.SetDefault("planner.fallback_consumption_kwh", 5.0)
	viper.SetDefault("planner.min_reserve_soc", 30)
	viper.SetDefault("planner.safety_floor_soc", 30)
	viper.SetDefault("planner.max_deficit_adjustment_pct", 50)
	viper.SetDefault("planner.charge_power_watt", 3840)
	viper.SetDefault("port", 8080)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	cfg.StatsDB.DSN = "*redacted*"
	slog.Info("Using", "config", cfg)
}
