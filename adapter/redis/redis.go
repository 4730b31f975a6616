// Package redis delivers transcode completion events through Redis, either
// as a pub/sub PUBLISH or as an entry appended to a stream.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pithecene-io/utf8conv/adapter"
)

// Defaults applied by New.
const (
	DefaultChannel = "utf8conv:transcode_completed"
	DefaultTimeout = 5 * time.Second
	DefaultRetries = 3
	// DefaultStreamMaxLen caps a stream (approximately) when StreamMaxLen
	// is zero.
	DefaultStreamMaxLen = 10000
)

// OutcomePlaceholder in Channel or Stream is replaced by the event outcome,
// so "utf8conv:{outcome}" routes lossy runs to "utf8conv:lossy".
const OutcomePlaceholder = "{outcome}"

// Config configures the Redis adapter.
type Config struct {
	// URL is the Redis connection URL, redis://[:password@]host:port[/db].
	URL string
	// Channel is the pub/sub channel. Ignored when Stream is set.
	Channel string
	// Stream, when set, appends events with XADD instead of PUBLISH.
	Stream string
	// StreamMaxLen trims the stream to about this many entries.
	StreamMaxLen int64
	// Timeout bounds a single attempt.
	Timeout time.Duration
	// Retries is the number of attempts after the first.
	Retries int
	// Backoff is the first retry delay.
	Backoff time.Duration
}

// Adapter publishes completion events to Redis.
type Adapter struct {
	config Config
	client *goredis.Client
}

// New creates a Redis adapter. The connection is opened lazily.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis adapter requires a URL")
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis adapter: invalid URL: %w", err)
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.StreamMaxLen <= 0 {
		cfg.StreamMaxLen = DefaultStreamMaxLen
	}
	return &Adapter{config: cfg, client: goredis.NewClient(opts)}, nil
}

// Publish delivers the event. A closed client is not retried.
func (a *Adapter) Publish(ctx context.Context, event *adapter.TranscodeCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: marshal event: %w", err)
	}

	send := a.publisher(event, body)
	err = adapter.Retry(ctx, adapter.RetryConfig{
		Retries: a.config.Retries,
		Backoff: a.config.Backoff,
		Permanent: func(err error) bool {
			return errors.Is(err, goredis.ErrClosed)
		},
	}, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
		return send(attemptCtx)
	})
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

// publisher returns the single-attempt send for the configured mode.
func (a *Adapter) publisher(event *adapter.TranscodeCompletedEvent, body []byte) func(context.Context) error {
	if a.config.Stream != "" {
		args := &goredis.XAddArgs{
			Stream: route(a.config.Stream, event.Outcome),
			MaxLen: a.config.StreamMaxLen,
			Approx: true,
			Values: map[string]any{
				"run_id":  event.RunID,
				"outcome": event.Outcome,
				"event":   string(body),
			},
		}
		return func(ctx context.Context) error {
			return a.client.XAdd(ctx, args).Err()
		}
	}
	channel := route(a.config.Channel, event.Outcome)
	return func(ctx context.Context) error {
		return a.client.Publish(ctx, channel, body).Err()
	}
}

func route(name, outcome string) string {
	return strings.ReplaceAll(name, OutcomePlaceholder, outcome)
}

// Close closes the client.
func (a *Adapter) Close() error {
	return a.client.Close()
}

var _ adapter.Adapter = (*Adapter)(nil)
