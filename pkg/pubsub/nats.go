package pubsub

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSBus is a Bus backed by a NATS connection, broadcasting state
// changes to every dashboard process subscribed to the subject.
type NATSBus struct {
	conn *nats.Conn
}

// ConnectNATS dials url and wraps the connection in a Bus.
func ConnectNATS(url string) (*NATSBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("pubsub: connect to nats: %w", err)
	}
	return &NATSBus{conn: conn}, nil
}

// NewNATSBus wraps an existing NATS connection.
func NewNATSBus(conn *nats.Conn) *NATSBus {
	return &NATSBus{conn: conn}
}

// Conn exposes the underlying connection, mainly for health checks.
func (b *NATSBus) Conn() *nats.Conn {
	return b.conn
}

// Publish delivers payload to every subscriber of subject.
func (b *NATSBus) Publish(_ context.Context, subject string, payload []byte) error {
	if err := b.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("pubsub: publish %q: %w", subject, err)
	}
	return nil
}

// Subscribe registers handler for subject.
func (b *NATSBus) Subscribe(subject string, handler Handler) (func(), error) {
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("pubsub: subscribe %q: %w", subject, err)
	}

	return func() {
		_ = sub.Unsubscribe()
	}, nil
}

// Close drains the underlying connection.
func (b *NATSBus) Close() {
	b.conn.Close()
}
