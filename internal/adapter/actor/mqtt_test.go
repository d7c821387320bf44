package actor

import (
	"testing"
	"time"

	"chargeplan/internal/config"
	"chargeplan/internal/core/domain"
	"chargeplan/internal/mqtt"
	"chargeplan/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testMQTTConfig() *config.Config {
	return &config.Config{
		MQTT: config.MQTTConfig{
			Host:                "localhost",
			Port:                1883,
			BaseTopic:           "chargeplan",
			TariffTodayTopic:    "energy/tariff/today",
			TariffTomorrowTopic: "energy/tariff/tomorrow",
			ForecastTopic:       "energy/solar/forecast",
			SunriseTopic:        "energy/sun/sunrise",
		},
	}
}

func signalActor(t *testing.T) *MQTTActor {
	t.Helper()
	cfg := testMQTTConfig()
	act := NewMQTTActor(cfg, zap.NewNop())
	act.client = mqtt.CreateMQTTClient(cfg, mqtt.OptsFromConfig(cfg), nil, nil)
	return act
}

func TestTariffSignalDecoding(t *testing.T) {
	act := signalActor(t)

	signal := act.inputMessageToSignal(InputMessage{Topic: "energy/tariff/today", Payload: "red"})
	tariff, ok := signal.(domain.TariffSignal)
	require.True(t, ok)
	assert.False(t, tariff.Tomorrow)
	assert.Equal(t, domain.TariffRed, tariff.Color)

	signal = act.inputMessageToSignal(InputMessage{Topic: "energy/tariff/tomorrow", Payload: "garbage"})
	tariff, ok = signal.(domain.TariffSignal)
	require.True(t, ok)
	assert.True(t, tariff.Tomorrow)
	assert.Equal(t, domain.TariffWhite, tariff.Color, "unknown colors degrade to white")
}

func TestForecastSignalDecoding(t *testing.T) {
	act := signalActor(t)

	signal := act.inputMessageToSignal(InputMessage{Topic: "energy/solar/forecast", Payload: "12.5 kWh"})
	forecast, ok := signal.(domain.ForecastSignal)
	require.True(t, ok)
	assert.Equal(t, 12.5, forecast.PredictedProductionKWh)

	signal = act.inputMessageToSignal(InputMessage{Topic: "energy/solar/forecast", Payload: "unavailable"})
	forecast, ok = signal.(domain.ForecastSignal)
	require.True(t, ok)
	assert.Equal(t, 0.0, forecast.PredictedProductionKWh, "unparsable forecast means zero production")
}

func TestSunriseSignalDecoding(t *testing.T) {
	act := signalActor(t)

	signal := act.inputMessageToSignal(InputMessage{Topic: "energy/sun/sunrise", Payload: "07:45"})
	sunrise, ok := signal.(domain.SunriseSignal)
	require.True(t, ok)
	require.NotNil(t, sunrise.Sunrise)
	assert.Equal(t, 7, sunrise.Sunrise.Hour())
	assert.Equal(t, 45, sunrise.Sunrise.Minute())

	signal = act.inputMessageToSignal(InputMessage{Topic: "energy/sun/sunrise", Payload: "not a time"})
	sunrise, ok = signal.(domain.SunriseSignal)
	require.True(t, ok)
	assert.Nil(t, sunrise.Sunrise)
}

func TestUnknownTopicIsIgnored(t *testing.T) {
	act := signalActor(t)
	assert.Nil(t, act.inputMessageToSignal(InputMessage{Topic: "some/other/topic", Payload: "x"}))
}

func TestDummyMQTTActorHealth(t *testing.T) {

	assert := assert.New(t)

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(testMQTTConfig(), logger) })
	pid := context.Spawn(props)

	time.Sleep(500 * time.Millisecond)

	result, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 5*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.ActorHealthResponse)
	assert.True(resp.Healthy)
	assert.Equal(domain.ACTOR_ID_MQTT, resp.Id)

	context.Stop(pid)

	as.Shutdown()
}
