package events

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	EventTypeScrapeRunRequested EventType = "SCRAPE_RUN_REQUESTED"

	DefaultTriggerStream = "stream:whey_ranker_triggers"
	DefaultConsumerGroup = "whey-ranker"
)

// StreamReader is the part of the redis client the consumer uses.
type StreamReader interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, args *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// TriggerFunc starts a pipeline run for a SCRAPE_RUN_REQUESTED event.
type TriggerFunc func(ctx context.Context) error

// Consumer reads run requests from a stream through a consumer group.
// Messages whose trigger fails stay in this consumer's pending list and are
// read again, once, the next time the consumer starts.
type Consumer struct {
	redis   StreamReader
	stream  string
	group   string
	name    string
	trigger TriggerFunc
	block   time.Duration
	backoff time.Duration
	logger  *slog.Logger
}

func NewConsumer(client StreamReader, stream, group, name string, trigger TriggerFunc, logger *slog.Logger) *Consumer {
	if stream == "" {
		stream = DefaultTriggerStream
	}
	if group == "" {
		group = DefaultConsumerGroup
	}
	if name == "" {
		name = "consumer-1"
	}
	return &Consumer{
		redis:   client,
		stream:  stream,
		group:   group,
		name:    name,
		trigger: trigger,
		block:   5 * time.Second,
		backoff: time.Second,
		logger:  logger.With("component", "trigger_consumer"),
	}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	err := c.redis.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}

	c.logger.Info("starting consumer", "stream", c.stream, "group", c.group)

	// Retry what a previous run of this consumer left unacknowledged.
	if err := c.poll(ctx, "0"); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Error("failed to read pending messages", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := c.poll(ctx, ">"); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("failed to read from stream", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff):
			}
		}
	}
}

// poll reads one batch starting after id and handles it. ">" reads new
// messages, "0" re-reads this consumer's pending ones. An empty read is not
// an error.
func (c *Consumer) poll(ctx context.Context, id string) error {
	streams, err := c.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.name,
		Streams:  []string{c.stream, id},
		Count:    10,
		Block:    c.block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, stream := range streams {
		for _, message := range stream.Messages {
			if err := c.processMessage(ctx, message); err != nil {
				c.logger.Error("failed to process message", "id", message.ID, "error", err)
				continue
			}

			if err := c.redis.XAck(ctx, c.stream, c.group, message.ID).Err(); err != nil {
				c.logger.Error("failed to acknowledge message", "id", message.ID, "error", err)
			}
		}
	}
	return nil
}

func (c *Consumer) processMessage(ctx context.Context, msg redis.XMessage) error {
	eventType, _ := msg.Values["type"].(string)
	if eventType != string(EventTypeScrapeRunRequested) {
		c.logger.Debug("skipping event", "id", msg.ID, "type", eventType)
		return nil
	}

	c.logger.Info("run requested", "message_id", msg.ID, "event_id", msg.Values["event_id"])
	return c.trigger(ctx)
}
