package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("REDIS_ADDRESS", "127.0.0.1:6390")
	t.Setenv("REDIS_DB", "3")

	config, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:6390", config.Address)
	require.Equal(t, 3, config.DB)
	require.Equal(t, 2*time.Second, config.DialTimeout)
}

func TestReplaceHash(t *testing.T) {
	s := miniredis.RunT(t)
	t.Setenv("REDIS_ADDRESS", s.Addr())

	client, err := NewClient()
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx))

	require.NoError(t, client.ReplaceHash(ctx, "SENSORS_TABLE|host", map[string]string{"a": "1", "b": "2"}))
	require.NoError(t, client.ReplaceHash(ctx, "SENSORS_TABLE|host", map[string]string{"c": "3"}))

	values, err := client.HgetAll(ctx, "SENSORS_TABLE|host")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"c": "3"}, values)

	require.NoError(t, client.ReplaceHash(ctx, "SENSORS_TABLE|host", nil))
	values, err = client.HgetAll(ctx, "SENSORS_TABLE|host")
	require.NoError(t, err)
	require.Empty(t, values)
}

func TestPublish(t *testing.T) {
	s := miniredis.RunT(t)
	t.Setenv("REDIS_ADDRESS", s.Addr())

	client, err := NewClient()
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, "sensors:host")
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, client.Publish(ctx, "sensors:host", "1700000000,45.0"))

	message, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	require.Equal(t, "1700000000,45.0", message.Payload)
}
