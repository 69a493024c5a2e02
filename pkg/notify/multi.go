package notify

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/unklstewy/plane-spotter/internal/log"
	"github.com/unklstewy/plane-spotter/pkg/config"
	"github.com/unklstewy/plane-spotter/pkg/tracking"
)

// Multi sends every message to all of its notifiers. A failing notifier
// does not stop the others.
type Multi []tracking.Notifier

// Send implements tracking.Notifier. The returned error joins the failures
// of every notifier that failed.
func (m Multi) Send(ctx context.Context, message string, lg *log.Logger) error {
	var errs []error
	for i, n := range m {
		if err := n.Send(ctx, message, lg); err != nil {
			errs = append(errs, fmt.Errorf("notifier %d (%T): %w", i, n, err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every notifier that holds resources.
func (m Multi) Close() error {
	var errs []error
	for _, n := range m {
		if c, ok := n.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

// New builds the notifier selected by cfg.Driver. Several comma separated
// drivers are combined with Multi. The result must be closed with Close.
func New(cfg config.NotificationConfig, lg *log.Logger) (Multi, error) {
	var m Multi
	for _, driver := range cfg.Drivers() {
		switch driver {
		case "log":
			m = append(m, LogNotifier{})
		case "webhook":
			m = append(m, NewWebhookNotifier(cfg.Webhook))
		case "nats":
			n, err := NewNATSNotifier(cfg.NATS, lg)
			if err != nil {
				m.Close()
				return nil, err
			}
			m = append(m, n)
		default:
			m.Close()
			return nil, &config.ConfigurationError{
				Field:  "notification.driver",
				Reason: fmt.Sprintf("backend not known: %s", driver),
			}
		}
	}

	if len(m) == 0 {
		return nil, &config.ConfigurationError{Field: "notification.driver", Reason: "no notification backend configured"}
	}
	return m, nil
}
