package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	goredis "github.com/redis/go-redis/v9"
)

// Config is read from the environment.
type Config struct {
	Address     string        `env:"REDIS_ADDRESS" env-default:"localhost:6379" env-description:"Redis server address"`
	Password    string        `env:"REDIS_PASSWORD" env-description:"Redis password"`
	DB          int           `env:"REDIS_DB" env-default:"6" env-description:"Logical database samples are written to"`
	DialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT" env-default:"2s" env-description:"Redis connect timeout"`
}

type Client struct {
	client *goredis.Client
	config Config
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		return Config{}, fmt.Errorf("failed to read redis config: %w", err)
	}
	return config, nil
}

// NewClient creates a client configured from the environment.
func NewClient() (*Client, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return NewClientWithConfig(config), nil
}

func NewClientWithConfig(config Config) *Client {
	return &Client{
		client: goredis.NewClient(&goredis.Options{
			Addr:        config.Address,
			Password:    config.Password,
			DB:          config.DB,
			DialTimeout: config.DialTimeout,
		}),
		config: config,
	}
}

func (c *Client) Address() string {
	return c.config.Address
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// ReplaceHash swaps the whole content of hash key for values in one MULTI.
func (c *Client) ReplaceHash(ctx context.Context, key string, values map[string]string) error {
	fields := make(map[string]interface{}, len(values))
	for field, value := range values {
		fields[field] = value
	}

	_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(fields) > 0 {
			pipe.HSet(ctx, key, fields)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace hash %s: %w", key, err)
	}

	return nil
}

func (c *Client) HgetAll(ctx context.Context, key string) (map[string]string, error) {
	values, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read hash %s: %w", key, err)
	}
	return values, nil
}

func (c *Client) Publish(ctx context.Context, channel, message string) error {
	if err := c.client.Publish(ctx, channel, message).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}

// Subscribe exposes the underlying pub/sub handle; callers close it.
func (c *Client) Subscribe(ctx context.Context, channel string) *goredis.PubSub {
	return c.client.Subscribe(ctx, channel)
}

func (c *Client) Close() error {
	return c.client.Close()
}
