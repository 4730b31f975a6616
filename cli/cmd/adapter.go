package cmd

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/utf8conv/adapter"
	"github.com/pithecene-io/utf8conv/adapter/redis"
	"github.com/pithecene-io/utf8conv/adapter/webhook"
	u8config "github.com/pithecene-io/utf8conv/cli/config"
	"github.com/pithecene-io/utf8conv/iox"
	"github.com/pithecene-io/utf8conv/log"
)

// publishTimeout bounds the whole publish, retries included.
const publishTimeout = 30 * time.Second

func adapterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "adapter",
			EnvVars:  envVars("adapter"),
			Usage:    "Completion event adapter: webhook or redis",
			Category: categoryAdapter,
		},
		&cli.StringFlag{
			Name:     "adapter-url",
			EnvVars:  envVars("adapter-url"),
			Usage:    "Webhook endpoint or Redis URL",
			Category: categoryAdapter,
		},
		&cli.StringFlag{
			Name:     "adapter-channel",
			Usage:    "Redis pub/sub channel (default " + redis.DefaultChannel + "; " + redis.OutcomePlaceholder + " is replaced by the outcome)",
			Category: categoryAdapter,
		},
		&cli.StringFlag{
			Name:     "adapter-stream",
			Usage:    "Append events to this Redis stream (XADD) instead of publishing",
			Category: categoryAdapter,
		},
		&cli.StringSliceFlag{
			Name:     "adapter-header",
			Usage:    "Webhook header as key=value (repeatable)",
			Category: categoryAdapter,
		},
		&cli.DurationFlag{
			Name:     "adapter-timeout",
			Usage:    "Per-attempt publish timeout",
			Value:    webhook.DefaultTimeout,
			Category: categoryAdapter,
		},
		&cli.IntFlag{
			Name:     "adapter-retries",
			Usage:    "Publish retry attempts",
			Value:    webhook.DefaultRetries,
			Category: categoryAdapter,
		},
	}
}

// adapterChoice holds the resolved adapter configuration.
type adapterChoice struct {
	adapterType string
	url         string
	channel     string
	stream      string
	headers     map[string]string
	timeout     time.Duration
	retries     int
}

// parseAdapterConfigWithPrecedence resolves adapter settings for the given
// type. Config headers are merged under CLI headers.
func parseAdapterConfigWithPrecedence(c *cli.Context, cfg *u8config.Config, adapterType string) (*adapterChoice, error) {
	ac := &adapterChoice{
		adapterType: adapterType,
		url:         resolveString(c, "adapter-url", configVal(cfg, func(c *u8config.Config) string { return c.Adapter.URL })),
		channel:     resolveString(c, "adapter-channel", configVal(cfg, func(c *u8config.Config) string { return c.Adapter.Channel })),
		stream:      resolveString(c, "adapter-stream", configVal(cfg, func(c *u8config.Config) string { return c.Adapter.Stream })),
		timeout:     resolveDuration(c, "adapter-timeout", configVal(cfg, func(c *u8config.Config) time.Duration { return c.Adapter.Timeout.Duration })),
		retries:     c.Int("adapter-retries"),
		headers:     map[string]string{},
	}
	if !c.IsSet("adapter-retries") && cfg != nil && cfg.Adapter.Retries != nil {
		ac.retries = *cfg.Adapter.Retries
	}
	if cfg != nil {
		maps.Copy(ac.headers, cfg.Adapter.Headers)
	}
	cliHeaders, err := parseHeaders(c.StringSlice("adapter-header"))
	if err != nil {
		return nil, err
	}
	maps.Copy(ac.headers, cliHeaders)

	switch adapterType {
	case "webhook":
		if ac.url == "" {
			return nil, fmt.Errorf("--adapter-url is required when --adapter=webhook")
		}
	case "redis":
		if ac.url == "" {
			return nil, fmt.Errorf("--adapter-url is required when --adapter=redis")
		}
	default:
		return nil, fmt.Errorf("unknown adapter type %q (must be webhook or redis)", adapterType)
	}
	if ac.retries < 0 {
		return nil, fmt.Errorf("--adapter-retries must be >= 0, got %d", ac.retries)
	}
	return ac, nil
}

// buildAdapter constructs the adapter for a resolved choice.
func buildAdapter(ac *adapterChoice) (adapter.Adapter, error) {
	switch ac.adapterType {
	case "webhook":
		return webhook.New(webhook.Config{
			URL:     ac.url,
			Headers: ac.headers,
			Timeout: ac.timeout,
			Retries: ac.retries,
		})
	case "redis":
		return redis.New(redis.Config{
			URL:     ac.url,
			Channel: ac.channel,
			Stream:  ac.stream,
			Timeout: ac.timeout,
			Retries: ac.retries,
		})
	default:
		return nil, fmt.Errorf("unknown adapter type %q", ac.adapterType)
	}
}

// publishEvent publishes a completion event. Failures are logged and never
// change the run's exit code.
func publishEvent(ctx context.Context, ac *adapterChoice, event *adapter.TranscodeCompletedEvent, logger *log.Logger) {
	alog := logger.Sugar().With("adapter", ac.adapterType)
	a, err := buildAdapter(ac)
	if err != nil {
		alog.Warnf("adapter setup failed: %v", err)
		return
	}
	defer iox.DiscardClose(a)

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := a.Publish(pubCtx, event); err != nil {
		alog.Warnf("adapter publish failed: %v", err)
		return
	}
	alog.Infof("completion event %s published", event.EventType)
}
