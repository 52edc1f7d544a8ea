package mqtt

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/sweeney/stockwise/internal/inventory"
)

// DefaultBufferSize is the number of messages held while disconnected.
const DefaultBufferSize = 256

// PublisherConfig configures a RealPublisher.
type PublisherConfig struct {
	Broker      string
	ClientID    string
	EventPrefix string
	BufferSize  int // zero means DefaultBufferSize
	Logger      zerolog.Logger
}

// RealPublisher publishes to an actual MQTT broker. Messages published
// while the connection is down are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	prefix string
	log    zerolog.Logger

	mu  sync.Mutex
	buf *outbox

	connects atomic.Int64
}

// NewRealPublisher creates a publisher connected to the given broker. The
// broker publishes an LWT system event if the daemon disappears.
func NewRealPublisher(cfg PublisherConfig) (*RealPublisher, error) {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	p := &RealPublisher{
		prefix: cfg.EventPrefix,
		log:    cfg.Logger.With().Str("component", "mqtt_publisher").Logger(),
		buf:    newOutbox(cfg.BufferSize),
	}

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "LWT", Reason: "CONNECTION_LOST"})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(SystemTopic(cfg.EventPrefix), will, 1, false).
		SetOnConnectHandler(func(paho.Client) {
			n := p.connects.Add(1)
			p.log.Info().Str("broker", cfg.Broker).Int64("connects", n).Msg("connected")
			go p.onConnect(n > 1)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.log.Warn().Err(err).Msg("connection lost")
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

func (p *RealPublisher) onConnect(reconnected bool) {
	if reconnected {
		if err := p.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"}); err != nil {
			p.log.Warn().Err(err).Msg("publish reconnected")
		}
	}
	p.mu.Lock()
	pending := p.buf.drain()
	p.mu.Unlock()
	if len(pending) == 0 {
		return
	}
	p.log.Info().Int("messages", len(pending)).Msg("replaying buffered messages")
	for _, m := range pending {
		if err := p.send(m); err != nil {
			p.log.Warn().Err(err).Str("topic", m.topic).Msg("replay failed")
		}
	}
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// PublishTransition sends a slot status change to the location's topic.
func (p *RealPublisher) PublishTransition(t inventory.Transition) error {
	payload, err := FormatTransition(t)
	if err != nil {
		return fmt.Errorf("format transition: %w", err)
	}
	// QoS 1: consumers act on alerts
	return p.publish(bufferedMsg{topic: TransitionTopic(p.prefix, t.LocationID), payload: payload, qos: 1})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(bufferedMsg{topic: SystemTopic(p.prefix), payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) publish(m bufferedMsg) error {
	if !p.client.IsConnectionOpen() {
		p.enqueue(m)
		return nil
	}
	if err := p.send(m); err != nil {
		p.enqueue(m)
		return err
	}
	return nil
}

func (p *RealPublisher) send(m bufferedMsg) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

func (p *RealPublisher) enqueue(m bufferedMsg) {
	p.mu.Lock()
	dropped := p.buf.push(m)
	n := p.buf.capacity
	p.mu.Unlock()
	if dropped {
		p.log.Warn().Int("capacity", n).Msg("buffer full, dropping oldest")
	}
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
