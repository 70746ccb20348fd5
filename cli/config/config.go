package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/justapithecus/hessian/hessian"
)

// Config represents a hessian.yaml configuration file.
// All values are optional and act as defaults for command flags.
// CLI flags always override config values.
type Config struct {
	Source  string        `yaml:"source"`
	Decoder DecoderConfig `yaml:"decoder"`
	Storage StorageConfig `yaml:"storage"`
	Policy  PolicyConfig  `yaml:"policy"`
	Adapter AdapterConfig `yaml:"adapter"`
	Batch   BatchConfig   `yaml:"batch"`
}

// DecoderConfig holds decoder defaults from the config file.
type DecoderConfig struct {
	Scope    string `yaml:"scope"`
	MaxDepth int    `yaml:"max_depth"`
	Framed   bool   `yaml:"framed"`
	Capture  bool   `yaml:"capture"`
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
	BufferEvents  int      `yaml:"buffer_events"`
	BufferBytes   int64    `yaml:"buffer_bytes"`
	FlushCount    int      `yaml:"flush_count"`
	FlushMessages int      `yaml:"flush_messages"`
	FlushInterval Duration `yaml:"flush_interval"`
}

// AdapterConfig holds adapter defaults from the config file.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Stream  string            `yaml:"stream,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Secret  string            `yaml:"secret,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// BatchConfig holds multi-input defaults from the config file.
type BatchConfig struct {
	Parallel    int  `yaml:"parallel"`
	MaxSessions int  `yaml:"max_sessions"`
	Dedup       bool `yaml:"dedup"`
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
	d.Duration = parsed
	return nil
}

// Validate checks enumerated values. Empty values are left to flag defaults.
func (c *Config) Validate() error {
	var errs []error

	if c.Decoder.Scope != "" {
		if _, err := hessian.ParseScope(c.Decoder.Scope); err != nil {
			errs = append(errs, fmt.Errorf("decoder.scope: %w", err))
		}
	}
	if c.Decoder.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("decoder.max_depth must be >= 0, got %d", c.Decoder.MaxDepth))
	}

	switch c.Storage.Backend {
	case "", "fs", "s3", "none":
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unknown backend %q (must be fs, s3 or none)", c.Storage.Backend))
	}

	switch c.Policy.Name {
	case "", "strict", "buffered", "streaming", "noop":
	default:
		errs = append(errs, fmt.Errorf("policy.name: unknown policy %q", c.Policy.Name))
	}

	switch c.Adapter.Type {
	case "":
	case "webhook", "redis":
		if c.Adapter.URL == "" {
			errs = append(errs, fmt.Errorf("adapter.url is required for %s adapter", c.Adapter.Type))
		}
	default:
		errs = append(errs, fmt.Errorf("adapter.type: unknown adapter %q (must be webhook or redis)", c.Adapter.Type))
	}

	if c.Batch.Parallel < 0 || c.Batch.MaxSessions < 0 {
		errs = append(errs, errors.New("batch.parallel and batch.max_sessions must be >= 0"))
	}

	return errors.Join(errs...)
}
