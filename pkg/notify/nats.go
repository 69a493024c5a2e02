package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/unklstewy/plane-spotter/internal/log"
	"github.com/unklstewy/plane-spotter/pkg/config"
)

// NATSNotifier publishes messages to a NATS subject.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
	flush   time.Duration

	// closed is closed by the connection once a drain completes
	closed chan struct{}
}

// NewNATSNotifier connects to cfg.URL. The connection reconnects on its own
// until Close is called.
func NewNATSNotifier(cfg config.NATSConfig, lg *log.Logger) (*NATSNotifier, error) {
	closed := make(chan struct{})
	conn, err := nats.Connect(cfg.URL,
		nats.Name("plane-spotter"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				lg.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			lg.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
		nats.DrainTimeout(5*time.Second),
		nats.ClosedHandler(func(*nats.Conn) {
			close(closed)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", cfg.URL, err)
	}

	return &NATSNotifier{conn: conn, subject: cfg.Subject, flush: 5 * time.Second, closed: closed}, nil
}

// Send implements tracking.Notifier. It returns once the server has
// acknowledged the publish.
func (n *NATSNotifier) Send(ctx context.Context, message string, lg *log.Logger) error {
	msg := nats.NewMsg(n.subject)
	msg.Header.Set("Content-Type", "text/plain; charset=utf-8")
	msg.Data = []byte(message)

	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", n.subject, err)
	}

	timeout := n.flush
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	if err := n.conn.FlushTimeout(timeout); err != nil {
		return fmt.Errorf("failed to flush nats connection: %w", err)
	}

	lg.Info("published notification", "subject", n.subject)
	return nil
}

// Close drains pending messages and returns once the connection is closed.
// Calling Close again is a no-op.
func (n *NATSNotifier) Close() error {
	if n.conn.IsClosed() {
		return nil
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return fmt.Errorf("failed to drain nats connection: %w", err)
	}

	select {
	case <-n.closed:
		return nil
	case <-time.After(n.flush + time.Second):
		n.conn.Close()
		return fmt.Errorf("timed out draining nats connection after %s", n.flush)
	}
}
