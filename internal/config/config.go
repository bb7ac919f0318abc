package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the blinkd runtime configuration.
type Config struct {
	AppEnv   string
	LogLevel slog.Level

	BLEAdapter string
	LocalName  string

	// PrimaryPin and AuxPin are periph.io pin names (e.g. "GPIO17"). An
	// empty name selects a log-only indicator.
	PrimaryPin string
	AuxPin     string

	LoopIdle time.Duration

	// MQTTBroker empty disables telemetry.
	MQTTBroker      string
	MQTTPort        int
	MQTTClientID    string
	MQTTTopicPrefix string
}

// TelemetryEnabled reports whether an MQTT broker was configured.
func (c Config) TelemetryEnabled() bool { return c.MQTTBroker != "" }

// LoadFromEnv reads the configuration from the environment, falling back to
// defaults for unset variables.
func LoadFromEnv() (Config, error) {
	appEnv := env("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(env("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	loopIdleStr := env("LOOP_IDLE", "1ms")
	loopIdle, err := time.ParseDuration(loopIdleStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid LOOP_IDLE %q: %w", loopIdleStr, err)
	}
	if loopIdle < 0 {
		return Config{}, fmt.Errorf("LOOP_IDLE must not be negative, got %v", loopIdle)
	}

	mqttPortStr := env("MQTT_PORT", "1883")
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}
	if mqttPort <= 0 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("MQTT_PORT out of range: %d", mqttPort)
	}

	return Config{
		AppEnv:          appEnv,
		LogLevel:        level,
		BLEAdapter:      env("BLE_ADAPTER", "hci0"),
		LocalName:       env("BLE_LOCAL_NAME", "Blinky"),
		PrimaryPin:      env("LED_PRIMARY_PIN", ""),
		AuxPin:          env("LED_AUX_PIN", ""),
		LoopIdle:        loopIdle,
		MQTTBroker:      env("MQTT_BROKER", ""),
		MQTTPort:        mqttPort,
		MQTTClientID:    env("MQTT_CLIENT_ID", "blinkd"),
		MQTTTopicPrefix: strings.Trim(env("MQTT_TOPIC_PREFIX", "blinky"), "/"),
	}, nil
}

func env(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
