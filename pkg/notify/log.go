package notify

import (
	"context"

	"github.com/unklstewy/plane-spotter/internal/log"
)

// LogNotifier only logs messages. It is the dry run backend.
type LogNotifier struct{}

// Send implements tracking.Notifier.
func (LogNotifier) Send(ctx context.Context, message string, lg *log.Logger) error {
	lg.Info("would have sent message", "message", message)
	return nil
}
