package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/unklstewy/plane-spotter/internal/log"
	"github.com/unklstewy/plane-spotter/pkg/config"
)

// WebhookNotifier posts messages as JSON to an HTTP endpoint, such as a
// chat incoming webhook.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
}

// webhookPayload is the body of every request. Text and Content cover the
// field names used by the common chat services.
type webhookPayload struct {
	Text    string    `json:"text"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"sent_at"`
}

// NewWebhookNotifier creates a notifier posting to cfg.URL, sending at most
// cfg.PerMinute messages per minute (unlimited when zero).
func NewWebhookNotifier(cfg config.WebhookConfig) *WebhookNotifier {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.PerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.PerMinute/60), 1)
	}

	return &WebhookNotifier{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		now:        time.Now,
	}
}

// Send implements tracking.Notifier.
func (n *WebhookNotifier) Send(ctx context.Context, message string, lg *log.Logger) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("webhook rate limit: %w", err)
	}

	body, err := json.Marshal(webhookPayload{Text: message, Content: message, SentAt: n.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	lg.Info("sent webhook notification", "status", resp.StatusCode)
	return nil
}
