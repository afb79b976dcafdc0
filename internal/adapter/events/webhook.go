package events

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/polkiloo/eventreg/internal/domain/model"
)

const defaultRetryAfter = 5 * time.Second

// TooManyRequestsError is returned when the receiver rate limits delivery.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// WebhookPublisher POSTs each event payload to <base>/events/<type>.
type WebhookPublisher struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWebhookPublisher creates a webhook publisher with default timeout.
func NewWebhookPublisher(baseURL string, logger *slog.Logger) (*WebhookPublisher, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse webhook url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("webhook url must be absolute")
	}
	return &WebhookPublisher{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

func (p *WebhookPublisher) Publish(ctx context.Context, event model.OutboxEvent) error {
	endpoint := *p.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/events/", event.Type)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(event.Payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", event.EventID)
	req.Header.Set("X-Event-Key", event.Key)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return TooManyRequestsError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		p.logger.Error("webhook delivery failed", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return fmt.Errorf("publish %s: webhook responded %s", event.Type, resp.Status)
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return defaultRetryAfter
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return defaultRetryAfter
}
