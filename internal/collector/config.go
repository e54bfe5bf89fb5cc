package collector

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultCommand        = "sensors -u"
	DefaultCommandTimeout = 60 * time.Second
	DefaultPeriod         = 5000 * time.Millisecond
)

// Config holds the poller settings. Command, timeout, period and header
// come from flags; the rest from the environment.
type Config struct {
	Command        string
	CommandTimeout time.Duration
	MaxOutputBytes int
	Period         time.Duration
	ShowHeader     bool

	PublishKey     string
	PublishChannel bool
	PublishTimeout time.Duration
}

func LoadConfig(logger *slog.Logger) Config {
	return Config{
		Command:        DefaultCommand,
		CommandTimeout: DefaultCommandTimeout,
		MaxOutputBytes: parseIntEnv(logger, "SENSORS_COMMAND_MAX_OUTPUT_BYTES", 1<<20),
		Period:         DefaultPeriod,
		PublishKey:     parseStringEnv("SENSORS_PUBLISH_KEY", defaultPublishKey()),
		PublishChannel: parseBoolEnv(logger, "SENSORS_PUBLISH_CHANNEL", true),
		PublishTimeout: parseDurationEnv(logger, "SENSORS_PUBLISH_TIMEOUT", 2*time.Second),
	}
}

func defaultPublishKey() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "localhost"
	}
	return hostname
}

func parseStringEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}

	return strings.TrimSpace(value)
}

func parseBoolEnv(logger *slog.Logger, key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}

	parsedValue, err := strconv.ParseBool(value)
	if err != nil {
		logger.Warn("Invalid boolean value in env, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}

	return parsedValue
}

func parseDurationEnv(logger *slog.Logger, key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}

	parsedValue, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn("Invalid duration value in env, using default", "key", key, "value", value, "default", defaultValue.String())
		return defaultValue
	}

	if parsedValue <= 0 {
		logger.Warn("Duration env must be greater than zero, using default", "key", key, "value", value, "default", defaultValue.String())
		return defaultValue
	}

	return parsedValue
}

func parseIntEnv(logger *slog.Logger, key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}

	parsedValue, err := strconv.Atoi(value)
	if err != nil {
		logger.Warn("Invalid integer value in env, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}

	if parsedValue <= 0 {
		logger.Warn("Integer env must be greater than zero, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}

	return parsedValue
}
