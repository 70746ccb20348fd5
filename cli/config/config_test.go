package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_FullConfig(t *testing.T) {
	yaml := `source: billing-gateway

decoder:
  scope: stream
  max_depth: 64
  framed: true
  capture: true

storage:
  dataset: hessian
  backend: s3
  path: my-bucket/prefix
  region: us-east-1
  endpoint: https://example.com
  s3_path_style: true

policy:
  name: buffered
  buffer_events: 1000
  buffer_bytes: 10485760

adapter:
  type: webhook
  url: https://hooks.example.com/hessian
  headers:
    Authorization: Bearer token123
  secret: s3cret
  timeout: 10s
  retries: 3

batch:
  parallel: 4
  max_sessions: 100
  dedup: true
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	retries := 3
	want := &Config{
		Source:  "billing-gateway",
		Decoder: DecoderConfig{Scope: "stream", MaxDepth: 64, Framed: true, Capture: true},
		Storage: StorageConfig{
			Dataset:     "hessian",
			Backend:     "s3",
			Path:        "my-bucket/prefix",
			Region:      "us-east-1",
			Endpoint:    "https://example.com",
			S3PathStyle: true,
		},
		Policy: PolicyConfig{Name: "buffered", BufferEvents: 1000, BufferBytes: 10485760},
		Adapter: AdapterConfig{
			Type:    "webhook",
			URL:     "https://hooks.example.com/hessian",
			Headers: map[string]string{"Authorization": "Bearer token123"},
			Secret:  "s3cret",
			Timeout: Duration{10 * time.Second},
			Retries: &retries,
		},
		Batch: BatchConfig{Parallel: 4, MaxSessions: 100, Dedup: true},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_BlankDocuments(t *testing.T) {
	for name, doc := range map[string]string{
		"empty":      "",
		"whitespace": "   \n  \n  \n",
		"comments":   "# This is a comment\n# Another comment\n",
	} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeTemp(t, doc))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if diff := cmp.Diff(&Config{}, cfg); diff != "" {
				t.Errorf("blank config should be zero (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"invalid yaml", "{{invalid yaml", "invalid YAML"},
		{"unknown top-level key", "source: cap.bin\nbogus_key: x\n", "bogus_key"},
		{"unknown nested key", "storage:\n  backend: fs\n  path: ./data\n  unknown_field: bad\n", "unknown_field"},
		{"bad duration", "adapter:\n  timeout: not-a-duration\n", "invalid duration"},
		{"required variable", "adapter:\n  type: webhook\n  url: ${HESSIAN_TEST_HOOK_URL:?set the hook url}\n", "set the hook url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTemp(t, tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load error = %v, want one containing %q", err, tt.wantErr)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_SOURCE", "expanded-source")
	t.Setenv("TEST_STORAGE_PATH", "")

	yaml := `source: ${TEST_SOURCE}
storage:
  path: ${TEST_STORAGE_PATH:-/var/lib/hessian}
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqual(t, "source", cfg.Source, "expanded-source")
	assertEqual(t, "storage.path", cfg.Storage.Path, "/var/lib/hessian")
}

func TestLoad_Retries(t *testing.T) {
	base := "adapter:\n  type: webhook\n  url: https://example.com\n"
	zero, three := 0, 3
	tests := []struct {
		name  string
		extra string
		want  *int
	}{
		{"omitted", "", nil},
		{"explicit zero", "  retries: 0\n", &zero},
		{"three", "  retries: 3\n", &three},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeTemp(t, base+tt.extra))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, cfg.Adapter.Retries); diff != "" {
				t.Errorf("retries mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDuration_EmptyIsZero(t *testing.T) {
	yaml := `adapter:
  type: webhook
  url: https://example.com
  timeout: ""
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Adapter.Timeout.Duration != 0 {
		t.Errorf("expected zero duration, got %v", cfg.Adapter.Timeout.Duration)
	}
}

func TestDuration_FlushInterval(t *testing.T) {
	path := writeTemp(t, "policy:\n  name: streaming\n  flush_interval: 30s\n  flush_count: 500\n  flush_messages: 4\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Policy.FlushInterval.Duration != 30*time.Second {
		t.Errorf("expected 30s, got %v", cfg.Policy.FlushInterval.Duration)
	}
	if cfg.Policy.FlushCount != 500 {
		t.Errorf("expected flush_count=500, got %d", cfg.Policy.FlushCount)
	}
	if cfg.Policy.FlushMessages != 4 {
		t.Errorf("expected flush_messages=4, got %d", cfg.Policy.FlushMessages)
	}
}

func TestLoad_RedisAdapterConfig(t *testing.T) {
	yaml := `adapter:
  type: redis
  url: redis://localhost:6379/0
  channel: "hessian:{outcome}"
  stream: hessian:sessions
  timeout: 5s
  retries: 3
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqual(t, "adapter.type", cfg.Adapter.Type, "redis")
	assertEqual(t, "adapter.url", cfg.Adapter.URL, "redis://localhost:6379/0")
	assertEqual(t, "adapter.channel", cfg.Adapter.Channel, "hessian:{outcome}")
	assertEqual(t, "adapter.stream", cfg.Adapter.Stream, "hessian:sessions")
	if cfg.Adapter.Timeout.Duration != 5*time.Second {
		t.Errorf("expected adapter.timeout=5s, got %v", cfg.Adapter.Timeout.Duration)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"empty", Config{}, ""},
		{"valid", Config{Decoder: DecoderConfig{Scope: "message"}, Storage: StorageConfig{Backend: "none"}, Policy: PolicyConfig{Name: "noop"}}, ""},
		{"bad scope", Config{Decoder: DecoderConfig{Scope: "global"}}, "decoder.scope"},
		{"negative depth", Config{Decoder: DecoderConfig{MaxDepth: -1}}, "decoder.max_depth"},
		{"bad backend", Config{Storage: StorageConfig{Backend: "gcs"}}, "storage.backend"},
		{"bad policy", Config{Policy: PolicyConfig{Name: "lossy"}}, "policy.name"},
		{"adapter without url", Config{Adapter: AdapterConfig{Type: "redis"}}, "adapter.url is required"},
		{"bad adapter", Config{Adapter: AdapterConfig{Type: "kafka", URL: "x"}}, "adapter.type"},
		{"negative parallel", Config{Batch: BatchConfig{Parallel: -2}}, "batch.parallel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeTemp(t, "storage:\n  backend: ftp\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "storage.backend") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestLoadOptional(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadOptional("")
	if err != nil {
		t.Fatalf("LoadOptional without file failed: %v", err)
	}
	if cfg.Source != "" {
		t.Errorf("expected empty config, got %+v", cfg)
	}

	if err := os.WriteFile(DefaultPath, []byte("source: from-default\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadOptional("")
	if err != nil {
		t.Fatalf("LoadOptional failed: %v", err)
	}
	assertEqual(t, "source", cfg.Source, "from-default")

	if _, err := LoadOptional("missing.yaml"); err == nil {
		t.Error("explicit missing path should fail")
	}
}

// writeTemp writes content to a temp file and returns the path.
func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "hessian.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func assertEqual(t *testing.T, field, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %q, want %q", field, got, want)
	}
}
