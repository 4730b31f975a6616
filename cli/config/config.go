package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/pithecene-io/utf8conv/policy"
	"github.com/pithecene-io/utf8conv/types"
)

// Config represents a utf8conv.yaml configuration file.
// All values are optional and act as defaults for utf8conv convert flags.
// CLI flags always override config values.
type Config struct {
	Source            string        `yaml:"source"`
	From              string        `yaml:"from"`
	To                string        `yaml:"to"`
	ChunkSize         int           `yaml:"chunk_size"`
	AcceptReplacement bool          `yaml:"accept_replacement"`
	Storage           StorageConfig `yaml:"storage"`
	Policy            PolicyConfig  `yaml:"policy"`
	Adapter           AdapterConfig `yaml:"adapter"`
}

// StorageConfig holds storage defaults from the config file.
type StorageConfig struct {
	Dataset     string `yaml:"dataset"`
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// PolicyConfig holds policy defaults from the config file.
type PolicyConfig struct {
	Name          string   `yaml:"name"`
	BufferUnits   int      `yaml:"buffer_units"`
	FlushInterval Duration `yaml:"flush_interval"`
}

// AdapterConfig holds adapter defaults from the config file.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Stream  string            `yaml:"stream,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	d.Duration = parsed
	return nil
}

// Validate checks the values that are set. Unset values are left for flag
// defaults. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	if c.From != "" {
		if _, err := types.ParseInputFormat(c.From); err != nil {
			errs = append(errs, fmt.Errorf("from: %w", err))
		}
	}
	if c.To != "" {
		if _, err := types.ParseFormat(c.To); err != nil {
			errs = append(errs, fmt.Errorf("to: %w", err))
		}
	}
	if c.ChunkSize < 0 {
		errs = append(errs, fmt.Errorf("chunk_size: must not be negative, got %d", c.ChunkSize))
	}
	if c.Policy.Name != "" {
		if _, err := policy.ParseName(c.Policy.Name); err != nil {
			errs = append(errs, fmt.Errorf("policy.name: %w", err))
		}
	}
	if c.Policy.BufferUnits < 0 {
		errs = append(errs, fmt.Errorf("policy.buffer_units: must not be negative, got %d", c.Policy.BufferUnits))
	}
	switch c.Storage.Backend {
	case "", "fs", "s3":
	default:
		errs = append(errs, fmt.Errorf("storage.backend: must be fs or s3, got %q", c.Storage.Backend))
	}
	switch c.Adapter.Type {
	case "":
	case "webhook", "redis":
		if c.Adapter.URL == "" {
			errs = append(errs, fmt.Errorf("adapter.url: required for adapter type %q", c.Adapter.Type))
		}
	default:
		errs = append(errs, fmt.Errorf("adapter.type: must be webhook or redis, got %q", c.Adapter.Type))
	}
	if c.Adapter.Retries != nil && *c.Adapter.Retries < 0 {
		errs = append(errs, fmt.Errorf("adapter.retries: must not be negative, got %d", *c.Adapter.Retries))
	}
	return errors.Join(errs...)
}
