// Package kafka consumes live telemetry from a Kafka topic as an
// alternative to MQTT. Message keys carry the same path as MQTT topics.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/sweeney/stockwise/internal/telemetry"
)

// Config configures a Consumer.
type Config struct {
	Brokers     []string
	Topic       string
	GroupID     string
	TopicPrefix string // stripped from message keys
	Logger      zerolog.Logger
}

// reader is the subset of *kafkago.Reader the consumer uses.
type reader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Consumer feeds telemetry records from Kafka into a sink.
type Consumer struct {
	r      reader
	prefix string
	sink   telemetry.Sink
	log    zerolog.Logger
}

// NewConsumer creates a consumer group reader. Nothing is fetched until Run.
func NewConsumer(cfg Config, sink telemetry.Sink) *Consumer {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})
	return newConsumer(r, cfg, sink)
}

func newConsumer(r reader, cfg Config, sink telemetry.Sink) *Consumer {
	return &Consumer{
		r:      r,
		prefix: cfg.TopicPrefix,
		sink:   sink,
		log:    cfg.Logger.With().Str("component", "kafka_consumer").Str("topic", cfg.Topic).Logger(),
	}
}

// Run fetches until ctx is cancelled. Every fetched message is committed,
// including ones that were dropped as malformed.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info().Msg("consuming telemetry")
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch: %w", err)
		}
		c.handle(m)
		if err := c.r.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn().Err(err).Int64("offset", m.Offset).Msg("commit failed")
		}
	}
}

func (c *Consumer) handle(m kafkago.Message) {
	msg, err := telemetry.ParseTopic(c.prefix, string(m.Key))
	if err != nil {
		c.log.Debug().Str("key", string(m.Key)).Msg("ignoring key")
		return
	}
	msg.Payload = m.Value
	if err := c.sink.Ingest(msg); err != nil {
		c.log.Debug().Err(err).Str("key", string(m.Key)).Msg("dropped message")
	}
}

// Close closes the reader.
func (c *Consumer) Close() error {
	return c.r.Close()
}
