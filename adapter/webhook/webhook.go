// Package webhook posts transcode completion events as JSON to an HTTP
// endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pithecene-io/utf8conv/adapter"
	"github.com/pithecene-io/utf8conv/iox"
	"github.com/pithecene-io/utf8conv/types"
)

// Defaults applied by New.
const (
	DefaultTimeout = 10 * time.Second
	DefaultRetries = 3
)

// Request headers set on every delivery.
const (
	HeaderEvent = "X-Utf8conv-Event"
	HeaderRunID = "X-Utf8conv-Run-Id"
)

// maxDrain bounds how much of a response body is read before closing.
const maxDrain = 64 << 10

// Config configures the webhook adapter.
type Config struct {
	// URL is the endpoint to POST to. Required.
	URL string
	// Headers are added to every request. They may override the defaults
	// but not Content-Type.
	Headers map[string]string
	// Timeout bounds a single attempt.
	Timeout time.Duration
	// Retries is the number of attempts after the first.
	Retries int
	// Backoff is the first retry delay.
	Backoff time.Duration
}

// Adapter publishes completion events via HTTP POST.
type Adapter struct {
	config Config
	header http.Header
	client *http.Client
}

// New creates a webhook adapter.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook adapter requires a URL")
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	h := http.Header{}
	h.Set("User-Agent", "utf8conv/"+types.Version)
	for k, v := range cfg.Headers {
		h.Set(k, v)
	}
	h.Set("Content-Type", "application/json")

	return &Adapter{
		config: cfg,
		header: h,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Publish posts the event. Network errors, 5xx, 408 and 429 are retried;
// any other status outside 2xx fails at once.
func (a *Adapter) Publish(ctx context.Context, event *adapter.TranscodeCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	header := a.header.Clone()
	header.Set(HeaderEvent, event.EventType)
	header.Set(HeaderRunID, event.RunID)

	err = adapter.Retry(ctx, adapter.RetryConfig{
		Retries:   a.config.Retries,
		Backoff:   a.config.Backoff,
		Permanent: isPermanent,
	}, func(ctx context.Context) error {
		return a.post(ctx, header, body)
	})
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	return nil
}

// StatusError is a response outside 2xx.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

func isPermanent(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return se.Code >= 400 && se.Code < 500
}

func (a *Adapter) post(ctx context.Context, header http.Header, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header = header

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer iox.DiscardClose(resp.Body)
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))

	if resp.StatusCode/100 != 2 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// Close releases idle connections.
func (a *Adapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

var _ adapter.Adapter = (*Adapter)(nil)
