package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gestionale-natale/crm-client/pkg/httpclient"
	"github.com/go-resty/resty/v2"
)

// Headers set on every webhook delivery, mirroring the SQS/SNS message attributes.
const (
	HeaderSeverity  = "X-Notification-Severity"
	HeaderOperation = "X-Notification-Operation"
	HeaderResource  = "X-Notification-Resource"

	webhookErrorSnippet = 256
)

// webhookNotifier posts each notification as JSON to a configured URL.
type webhookNotifier struct {
	id     string
	method string
	url    string
	client *resty.Client
	log    Logger
}

func newHTTPNotifier(_ context.Context, cfg NotifierConfig, log Logger) (Notifier, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("notifier %q missing http configuration", cfg.ID)
	}

	client := httpclient.NewRestyHTTPClient(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second).
		SetHeader("Content-Type", "application/json")
	// Configured headers (tokens, tenant ids) go on the client once; routing headers per request.
	if len(cfg.HTTP.Headers) > 0 {
		client.SetHeaders(cfg.HTTP.Headers)
	}

	return &webhookNotifier{
		id:     cfg.ID,
		method: cfg.HTTP.Method,
		url:    cfg.HTTP.URL,
		client: client,
		log:    ensureLogger(log),
	}, nil
}

func (w *webhookNotifier) ID() string   { return w.id }
func (w *webhookNotifier) Type() string { return TypeHTTP }

// Notify delivers n. Receivers can route on the X-Notification-* headers without parsing the body.
func (w *webhookNotifier) Notify(ctx context.Context, n Notification) error {
	req := w.client.R().
		SetContext(ctx).
		SetHeader(HeaderSeverity, string(n.Severity)).
		SetHeader(HeaderOperation, n.Operation).
		SetBody(n)
	if n.Resource != "" {
		req.SetHeader(HeaderResource, n.Resource)
	}

	resp, err := req.Execute(w.method, w.url)
	if err != nil {
		return fmt.Errorf("webhook %s %s: %w", w.method, w.url, err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook answered %d for %s notification: %s",
			resp.StatusCode(), n.Severity, truncate(resp.String(), webhookErrorSnippet))
	}

	w.log.DebugObj("webhook notification delivered", "notifier_http_delivery", map[string]any{
		"notifier_id": w.id,
		"severity":    n.Severity,
		"operation":   n.Operation,
		"status":      resp.StatusCode(),
	})
	return nil
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
