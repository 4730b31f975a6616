package lode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/justapithecus/lode/lode"
	lodes3 "github.com/justapithecus/lode/lode/s3"
)

// S3Config locates a dataset in S3 or an S3-compatible store.
// Credentials come from the AWS default chain.
type S3Config struct {
	Bucket string
	Prefix string
	// Region overrides the region from the environment.
	Region string
	// Endpoint overrides the service endpoint (MinIO, LocalStack).
	Endpoint string
	// UsePathStyle addresses the bucket in the path instead of the host.
	UsePathStyle bool
}

// Validate checks that a bucket is set.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("S3 bucket is required")
	}
	return nil
}

// URI returns the s3:// form of the location.
func (c *S3Config) URI() string {
	if c.Prefix == "" {
		return "s3://" + c.Bucket
	}
	return "s3://" + c.Bucket + "/" + c.Prefix
}

// ParseS3Path splits "bucket", "bucket/prefix" or "s3://bucket/prefix".
// Surrounding slashes on the prefix are dropped.
func ParseS3Path(p string) (bucket, prefix string) {
	p = strings.TrimPrefix(p, "s3://")
	bucket, prefix, _ = strings.Cut(strings.Trim(p, "/"), "/")
	return bucket, strings.Trim(prefix, "/")
}

func (c *S3Config) loadOptions() []func(*config.LoadOptions) error {
	if c.Region == "" {
		return nil
	}
	return []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
}

func (c *S3Config) clientOptions(o *s3.Options) {
	if c.Endpoint != "" {
		o.BaseEndpoint = &c.Endpoint
	}
	o.UsePathStyle = c.UsePathStyle
}

// NewS3StoreFactory builds a lode store factory over S3.
func NewS3StoreFactory(ctx context.Context, s3cfg S3Config) (lode.StoreFactory, error) {
	if err := s3cfg.Validate(); err != nil {
		return nil, err
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, s3cfg.loadOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, s3cfg.clientOptions)

	return func() (lode.Store, error) {
		return lodes3.New(client, lodes3.Config{Bucket: s3cfg.Bucket, Prefix: s3cfg.Prefix})
	}, nil
}

// NewLodeS3Client creates a client whose dataset lives in S3.
func NewLodeS3Client(ctx context.Context, cfg Config, s3cfg S3Config) (*LodeClient, error) {
	factory, err := NewS3StoreFactory(ctx, s3cfg)
	if err != nil {
		return nil, WrapInitError(err, cfg.Dataset)
	}
	return NewLodeClientWithFactory(cfg, factory)
}
