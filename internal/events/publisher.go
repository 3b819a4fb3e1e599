package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/whey-ranker/internal/models"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event
type EventType string

const (
	EventTypeScrapeRunCompleted EventType = "SCRAPE_RUN_COMPLETED"
	EventTypeScrapeRunFailed    EventType = "SCRAPE_RUN_FAILED"

	DefaultStream = "stream:whey_ranker_runs"
)

// RedisClient is the part of the redis client the publisher uses.
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// RunPayload describes a finished pipeline run.
type RunPayload struct {
	EventID      string                `json:"event_id"`
	EventType    string                `json:"event_type"`
	Timestamp    time.Time             `json:"timestamp"`
	RunID        string                `json:"run_id"`
	Status       string                `json:"status"`
	Sources      []models.SourceResult `json:"sources"`
	TotalStored  int                   `json:"total_stored"`
	Deduplicated int                   `json:"deduplicated"`
	Error        string                `json:"error,omitempty"`
	Source       string                `json:"source"`
}

// Publisher appends run events to a Redis stream.
type Publisher struct {
	redis  RedisClient
	stream string
	logger *slog.Logger
}

func NewPublisher(client RedisClient, stream string, logger *slog.Logger) *Publisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &Publisher{
		redis:  client,
		stream: stream,
		logger: logger.With("component", "event_publisher"),
	}
}

// PublishRun fills in event metadata and adds the payload to the stream.
func (p *Publisher) PublishRun(ctx context.Context, payload *RunPayload) error {
	if payload.EventID == "" {
		payload.EventID = uuid.New().String()
	}
	if payload.EventType == "" {
		payload.EventType = string(EventTypeScrapeRunCompleted)
		if payload.Error != "" {
			payload.EventType = string(EventTypeScrapeRunFailed)
		}
	}
	if payload.Timestamp.IsZero() {
		payload.Timestamp = time.Now()
	}
	if payload.Source == "" {
		payload.Source = "whey-ranker"
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":         string(data),
			"type":         payload.EventType,
			"timestamp":    fmt.Sprintf("%d", payload.Timestamp.UnixNano()),
			"event_id":     payload.EventID,
			"aggregate_id": payload.RunID,
		},
	}

	id, err := p.redis.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	p.logger.Info("event published",
		"type", payload.EventType,
		"event_id", payload.EventID,
		"run_id", payload.RunID,
		"stream_id", id,
	)
	return nil
}

func (p *Publisher) Close() error {
	return p.redis.Close()
}
