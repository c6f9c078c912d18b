package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/scene-engine/pkg/host"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	client, _ := setupTestRedis(t)

	sub := client.Subscribe(ctx, "choices")
	defer sub.Close()
	_, err := sub.Receive(ctx) // subscription confirmation
	require.NoError(t, err)

	p := NewPublisher(client, "choices", "session-1", testLogger())
	require.True(t, p.Enabled())

	payload, err := host.EncodeChoice("start", "Go left, towards the light")
	require.NoError(t, err)
	require.NoError(t, p.Publish(ctx, payload))

	select {
	case msg := <-sub.Channel():
		var env Envelope
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &env))
		assert.Equal(t, "session-1", env.SessionID)
		assert.False(t, env.SentAt.IsZero())

		var choice host.ChoicePayload
		require.NoError(t, json.Unmarshal(env.Payload, &choice))
		assert.Equal(t, host.ChoicePayload{
			Action: host.ActionChoiceMade,
			Scene:  "start",
			Choice: "Go left, towards the light",
		}, choice)
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestPublisher_Disabled(t *testing.T) {
	p, err := Dial("redis://localhost:1", "", "", testLogger())
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Publish(context.Background(), []byte(`{}`)))
	assert.NoError(t, p.Close())

	var nilPublisher *Publisher
	assert.NoError(t, nilPublisher.Publish(context.Background(), []byte(`{}`)))
}

func TestPublisher_RejectsInvalidJSON(t *testing.T) {
	client, _ := setupTestRedis(t)
	p := NewPublisher(client, "choices", "", testLogger())
	assert.Error(t, p.Publish(context.Background(), []byte(`not json`)))
}

func TestPublisher_RedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	p := NewPublisher(client, "choices", "", testLogger())

	assert.Error(t, p.Publish(context.Background(), []byte(`{}`)))
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)
	p, err := Dial("redis://"+mr.Addr(), "choices", "s", testLogger())
	require.NoError(t, err)
	assert.True(t, p.Enabled())
	assert.NoError(t, p.Publish(context.Background(), []byte(`{"action":"choice_made"}`)))
	assert.NoError(t, p.Close())

	_, err = Dial("postgres://localhost", "choices", "s", testLogger())
	assert.Error(t, err)
}
