package collector

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/vinted/sensors-csv/pkg/redis"
)

const (
	redisTablePrefix   = "SENSORS_TABLE|"
	redisChannelPrefix = "sensors:"
)

// redisPublisher mirrors the latest sample into a Redis hash and, when
// enabled, publishes the CSV data row on a channel. Only the latest sample
// is kept.
type redisPublisher struct {
	client         *redis.Client
	tableKey       string
	channel        string
	publishChannel bool
	timeout        time.Duration
	logger         *slog.Logger
}

func NewRedisPublisher(logger *slog.Logger, client *redis.Client, config Config) *redisPublisher {
	timeout := config.PublishTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	return &redisPublisher{
		client:         client,
		tableKey:       redisTablePrefix + config.PublishKey,
		channel:        redisChannelPrefix + config.PublishKey,
		publishChannel: config.PublishChannel,
		timeout:        timeout,
		logger:         logger,
	}
}

func (publisher *redisPublisher) Observe(parentCtx context.Context, result PollResult) {
	if result.EmptyOutput {
		publisher.logger.Debug("Sensors output empty, skipping redis publish")
		return
	}

	ctx, cancel := context.WithTimeout(parentCtx, publisher.timeout)
	defer cancel()

	values := make(map[string]string, len(result.Sample)+1)
	values[timeColumn] = strconv.FormatInt(result.Time.UTC().Unix(), 10)
	for _, metric := range result.Sample {
		values[metric.Key] = FormatValue(metric.Value)
	}

	if err := publisher.client.ReplaceHash(ctx, publisher.tableKey, values); err != nil {
		publisher.logger.Error("Error writing sample to redis", "key", publisher.tableKey, "error", err)
		return
	}

	if !publisher.publishChannel {
		return
	}

	row, err := FormatRow(result.Time, result.Sample)
	if err != nil {
		publisher.logger.Error("Error formatting sample for redis channel", "error", err)
		return
	}

	if err := publisher.client.Publish(ctx, publisher.channel, row); err != nil {
		publisher.logger.Error("Error publishing sample to redis", "channel", publisher.channel, "error", err)
	}
}
