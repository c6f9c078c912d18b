// Package telemetry forwards choice events to a Redis pub/sub channel so
// something outside the game can follow play as it happens.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const publishTimeout = 2 * time.Second

// Envelope wraps a payload with the session it came from.
type Envelope struct {
	SessionID string          `json:"session_id,omitempty"`
	SentAt    time.Time       `json:"sent_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Publisher publishes payloads on one channel. A Publisher with no channel is
// disabled and Publish does nothing.
type Publisher struct {
	redisClient *redis.Client
	ownsClient  bool
	channel     string
	sessionID   string
	logger      *slog.Logger
}

// NewPublisher creates a publisher on an existing client.
func NewPublisher(redisClient *redis.Client, channel, sessionID string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		redisClient: redisClient,
		channel:     strings.TrimSpace(channel),
		sessionID:   sessionID,
		logger:      logger,
	}
}

// Dial connects to redisURL and returns a publisher that owns the connection.
// An empty channel returns a disabled publisher without connecting.
func Dial(redisURL, channel, sessionID string, logger *slog.Logger) (*Publisher, error) {
	if strings.TrimSpace(channel) == "" {
		return NewPublisher(nil, "", sessionID, logger), nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	p := NewPublisher(redis.NewClient(opts), channel, sessionID, logger)
	p.ownsClient = true
	return p, nil
}

// Enabled reports whether Publish sends anything.
func (p *Publisher) Enabled() bool {
	return p != nil && p.redisClient != nil && p.channel != ""
}

// Publish sends payload, which must be JSON, wrapped in an Envelope.
func (p *Publisher) Publish(ctx context.Context, payload []byte) error {
	if !p.Enabled() {
		return nil
	}
	if !json.Valid(payload) {
		return fmt.Errorf("payload is not valid JSON")
	}

	data, err := json.Marshal(Envelope{
		SessionID: p.sessionID,
		SentAt:    time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		p.logger.Error("Failed to marshal event", "error", err)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.redisClient.Publish(ctx, p.channel, data).Err(); err != nil {
		p.logger.Error("Failed to publish event", "error", err, "channel", p.channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Event published", "channel", p.channel)
	return nil
}

// Close closes the connection if the publisher opened it.
func (p *Publisher) Close() error {
	if p == nil || !p.ownsClient || p.redisClient == nil {
		return nil
	}
	return p.redisClient.Close()
}
