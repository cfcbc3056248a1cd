package audit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/erazemk/zimmet/internal/model"
)

// WebhookSink POSTs every event as JSON to a URL.
type WebhookSink struct {
	client *resty.Client
	url    string
}

// NewWebhookSink builds a sink posting to url. A non-empty token is sent as a
// bearer token.
func NewWebhookSink(url, token string, timeout time.Duration) *WebhookSink {
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)
	if token != "" {
		client.SetAuthToken(token)
	}
	return &WebhookSink{client: client, url: url}
}

func (*WebhookSink) Name() string { return "webhook" }

func (w *WebhookSink) Record(ctx context.Context, e model.AuditEvent) error {
	resp, err := w.client.R().
		SetContext(context.WithoutCancel(ctx)).
		SetBody(e).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("posting audit event: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("audit webhook returned %d", resp.StatusCode())
	}
	return nil
}
