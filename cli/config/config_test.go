package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoad_FullConfig(t *testing.T) {
	doc := `source: nightly-export
from: utf8
to: utf32le
chunk_size: 8192
accept_replacement: true

storage:
  dataset: utf8conv
  backend: s3
  path: my-bucket/prefix
  region: us-east-1
  endpoint: https://example.com
  s3_path_style: true

policy:
  name: buffered
  buffer_units: 65536
  flush_interval: 2s

adapter:
  type: redis
  url: redis://localhost:6379/0
  stream: runs:{outcome}
  headers:
    Authorization: Bearer token123
  timeout: 10s
  retries: 3
`
	cfg, err := Load(writeTemp(t, doc))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	retries := 3
	want := &Config{
		Source:            "nightly-export",
		From:              "utf8",
		To:                "utf32le",
		ChunkSize:         8192,
		AcceptReplacement: true,
		Storage: StorageConfig{
			Dataset:     "utf8conv",
			Backend:     "s3",
			Path:        "my-bucket/prefix",
			Region:      "us-east-1",
			Endpoint:    "https://example.com",
			S3PathStyle: true,
		},
		Policy: PolicyConfig{
			Name:          "buffered",
			BufferUnits:   65536,
			FlushInterval: Duration{2 * time.Second},
		},
		Adapter: AdapterConfig{
			Type:    "redis",
			URL:     "redis://localhost:6379/0",
			Stream:  "runs:{outcome}",
			Headers: map[string]string{"Authorization": "Bearer token123"},
			Timeout: Duration{10 * time.Second},
			Retries: &retries,
		},
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("Load() =\n%+v\nwant\n%+v", cfg, want)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		errContains string
	}{
		{"missing file", "/nonexistent/utf8conv.yaml", "not found"},
		{"invalid yaml", writeTemp(t, "{{invalid yaml"), ""},
		{"unknown key", writeTemp(t, "sourse: typo\n"), "sourse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error = %q, want it to contain %q", err, tt.errContains)
			}
		})
	}
}

func TestLoad_EmptyAndExpanded(t *testing.T) {
	empty, err := Load(writeTemp(t, ""))
	if err != nil || !reflect.DeepEqual(empty, &Config{}) {
		t.Errorf("Load(empty) = %+v, %v", empty, err)
	}

	t.Setenv("TEST_SOURCE", "expanded-source")
	t.Setenv("TEST_WEBHOOK", "https://hooks.example.com/x")
	doc := `source: ${TEST_SOURCE}
to: ${TEST_TO:-utf32be}
adapter:
  type: webhook
  url: ${TEST_WEBHOOK}
`
	cfg, err := Load(writeTemp(t, doc))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Source != "expanded-source" || cfg.To != "utf32be" || cfg.Adapter.URL != "https://hooks.example.com/x" {
		t.Errorf("expanded config = %+v", cfg)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	tests := []string{
		"policy:\n  flush_interval: soon\n",
		"policy:\n  flush_interval: -5s\n",
	}
	for _, yaml := range tests {
		if _, err := Load(writeTemp(t, yaml)); err == nil {
			t.Errorf("Load(%q) expected error", yaml)
		}
	}
}

func TestValidate(t *testing.T) {
	neg := -1
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"empty", Config{}, ""},
		{"valid formats", Config{From: "utf-8", To: "frames"}, ""},
		{"frames input", Config{From: "frames"}, "from:"},
		{"bad output", Config{To: "latin1"}, "to:"},
		{"negative chunk size", Config{ChunkSize: -4}, "chunk_size"},
		{"bad policy", Config{Policy: PolicyConfig{Name: "eager"}}, "policy.name"},
		{"negative buffer", Config{Policy: PolicyConfig{BufferUnits: -1}}, "policy.buffer_units"},
		{"bad backend", Config{Storage: StorageConfig{Backend: "gcs"}}, "storage.backend"},
		{"adapter without url", Config{Adapter: AdapterConfig{Type: "redis"}}, "adapter.url"},
		{"bad adapter", Config{Adapter: AdapterConfig{Type: "kafka", URL: "x"}}, "adapter.type"},
		{"negative retries", Config{Adapter: AdapterConfig{Retries: &neg}}, "adapter.retries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	cfg := Config{To: "latin1", ChunkSize: -1}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil, want error")
	}
	for _, want := range []string{"to:", "chunk_size"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error = %q, want it to contain %q", err, want)
		}
	}
}

// writeTemp writes content to a temp file and returns the path.
func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "utf8conv.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}
