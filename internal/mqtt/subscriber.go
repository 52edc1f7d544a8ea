package mqtt

import (
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/sweeney/stockwise/internal/telemetry"
)

// SubscriberConfig configures a RealSubscriber.
type SubscriberConfig struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	Logger      zerolog.Logger
}

// RealSubscriber feeds live records written by brains into a sink.
type RealSubscriber struct {
	client  paho.Client
	handler *Handler
}

// Handler turns MQTT messages into telemetry writes.
type Handler struct {
	prefix string
	sink   telemetry.Sink
	log    zerolog.Logger
}

// NewHandler creates a handler for topics under prefix.
func NewHandler(prefix string, sink telemetry.Sink, logger zerolog.Logger) *Handler {
	return &Handler{prefix: prefix, sink: sink, log: logger}
}

// Handle ingests one message. Unknown topics and bad payloads are logged
// and dropped.
func (h *Handler) Handle(topic string, payload []byte) {
	msg, err := telemetry.ParseTopic(h.prefix, topic)
	if err != nil {
		h.log.Debug().Str("topic", topic).Msg("ignoring topic")
		return
	}
	msg.Payload = payload
	if err := h.sink.Ingest(msg); err != nil && !errors.Is(err, telemetry.ErrUnknownTopic) {
		h.log.Debug().Err(err).Str("topic", topic).Msg("dropped message")
	}
}

// NewRealSubscriber connects and subscribes to every live collection. The
// subscription is renewed on each reconnect.
func NewRealSubscriber(cfg SubscriberConfig, sink telemetry.Sink) (*RealSubscriber, error) {
	log := cfg.Logger.With().Str("component", "mqtt_subscriber").Logger()
	s := &RealSubscriber{handler: NewHandler(cfg.TopicPrefix, sink, log)}

	filters := map[string]byte{}
	for _, f := range TelemetryFilters(cfg.TopicPrefix) {
		filters[f] = 1
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c paho.Client) {
			token := c.SubscribeMultiple(filters, func(_ paho.Client, m paho.Message) {
				s.handler.Handle(m.Topic(), m.Payload())
			})
			if !token.WaitTimeout(10 * time.Second) {
				log.Error().Msg("subscribe timeout")
				return
			}
			if err := token.Error(); err != nil {
				log.Error().Err(err).Msg("subscribe failed")
				return
			}
			log.Info().Str("prefix", cfg.TopicPrefix).Msg("subscribed to telemetry")
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn().Err(err).Msg("connection lost")
		})

	s.client = paho.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return s, nil
}

// IsConnected reports whether the broker connection is up.
func (s *RealSubscriber) IsConnected() bool {
	return s.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (s *RealSubscriber) Close() error {
	s.client.Disconnect(1000)
	return nil
}
