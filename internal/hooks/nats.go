package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/soyeahso/prodbot/internal/logging"
)

// Publisher is the subset of *nats.Conn the event sink needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher forwards every hook event as JSON to <subject>.<event>.
type NATSPublisher struct {
	pub     Publisher
	conn    *nats.Conn
	subject string
	log     *logging.Logger
}

// NewNATSPublisher wraps an existing publisher.
func NewNATSPublisher(pub Publisher, subject string, log *logging.Logger) *NATSPublisher {
	return &NATSPublisher{pub: pub, subject: subject, log: log.Sub("events")}
}

// ConnectNATS dials url with unbounded reconnects and returns a publisher
// that owns the connection.
func ConnectNATS(url, subject string, log *logging.Logger) (*NATSPublisher, error) {
	sub := log.Sub("events")
	nc, err := nats.Connect(url,
		nats.Name("prodbot"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			sub.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			sub.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	sub.Info().Str("url", url).Str("subject", subject).Msg("connected to NATS")

	p := NewNATSPublisher(nc, subject, log)
	p.conn = nc
	return p, nil
}

func (p *NATSPublisher) ID() string { return "nats" }

// Attach subscribes the publisher to every event on m.
func (p *NATSPublisher) Attach(m *Manager) {
	m.OnAll("nats", p.Handle)
}

// Handle publishes one payload.
func (p *NATSPublisher) Handle(_ context.Context, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	subject := p.subject + "." + payload.Event
	if err := p.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", subject, err)
	}
	p.log.Trace().Str("subject", subject).Msg("event published")
	return nil
}

// Close drains the connection when the publisher owns one.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
