package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/justapithecus/lode/lode"
	"github.com/urfave/cli/v2"

	u8config "github.com/pithecene-io/utf8conv/cli/config"
	u8lode "github.com/pithecene-io/utf8conv/lode"
)

// storageChoice holds the resolved Lode storage configuration.
type storageChoice struct {
	dataset   string
	backend   string // "fs" or "s3"
	path      string // fs: directory, s3: bucket/prefix
	region    string
	endpoint  string
	pathStyle bool
}

// enabled reports whether a storage path was configured.
func (s storageChoice) enabled() bool { return s.path != "" }

func resolveStorageChoice(c *cli.Context, cfg *u8config.Config) storageChoice {
	sc := storageChoice{
		dataset:   resolveString(c, "lode-dataset", configVal(cfg, func(c *u8config.Config) string { return c.Storage.Dataset })),
		backend:   resolveString(c, "lode-backend", configVal(cfg, func(c *u8config.Config) string { return c.Storage.Backend })),
		path:      resolveString(c, "lode-path", configVal(cfg, func(c *u8config.Config) string { return c.Storage.Path })),
		region:    resolveString(c, "lode-region", configVal(cfg, func(c *u8config.Config) string { return c.Storage.Region })),
		endpoint:  resolveString(c, "lode-endpoint", configVal(cfg, func(c *u8config.Config) string { return c.Storage.Endpoint })),
		pathStyle: resolveBool(c, "lode-s3-path-style", configVal(cfg, func(c *u8config.Config) bool { return c.Storage.S3PathStyle })),
	}
	if sc.dataset == "" {
		sc.dataset = u8lode.DefaultDataset
	}
	return sc
}

// validateStorageConfig checks a storage choice before any run work starts.
func validateStorageConfig(sc storageChoice) error {
	switch sc.backend {
	case "fs":
		if sc.path == "" {
			return nil
		}
		info, err := os.Stat(sc.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("--lode-path %q does not exist", sc.path)
			}
			return fmt.Errorf("--lode-path %q: %w", sc.path, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("--lode-path %q is not a directory", sc.path)
		}
		return nil
	case "s3":
		if sc.path == "" {
			return errors.New("--lode-path required for s3 backend (format: bucket/prefix)")
		}
		bucket, _ := u8lode.ParseS3Path(sc.path)
		if bucket == "" {
			return fmt.Errorf("--lode-path %q has no bucket", sc.path)
		}
		return nil
	default:
		return fmt.Errorf("invalid --lode-backend %q (must be fs or s3)", sc.backend)
	}
}

func (s storageChoice) s3Config() u8lode.S3Config {
	bucket, prefix := u8lode.ParseS3Path(s.path)
	return u8lode.S3Config{
		Bucket:       bucket,
		Prefix:       prefix,
		Region:       s.region,
		Endpoint:     s.endpoint,
		UsePathStyle: s.pathStyle,
	}
}

// buildLodeClient creates the write client for a validated storage choice.
func buildLodeClient(ctx context.Context, sc storageChoice, cfg u8lode.Config) (*u8lode.LodeClient, error) {
	switch sc.backend {
	case "s3":
		return u8lode.NewLodeS3Client(ctx, cfg, sc.s3Config())
	default:
		return u8lode.NewLodeClient(cfg, sc.path)
	}
}

// openReadDataset opens the dataset for report queries.
func openReadDataset(ctx context.Context, sc storageChoice) (lode.Dataset, error) {
	switch sc.backend {
	case "s3":
		return u8lode.NewReadDatasetS3(ctx, sc.dataset, sc.s3Config())
	default:
		return u8lode.NewReadDatasetFS(sc.dataset, sc.path)
	}
}

// buildStoragePath renders the storage location published in completion
// events.
func buildStoragePath(sc storageChoice) string {
	switch sc.backend {
	case "fs":
		return strings.TrimRight(sc.path, "/") + "/" + sc.dataset
	case "s3":
		s3cfg := sc.s3Config()
		return s3cfg.URI() + "/" + sc.dataset
	default:
		return ""
	}
}
