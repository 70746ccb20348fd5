// Package redis announces finished sessions over Redis.
//
// Every event is PUBLISHed as JSON. The channel may carry an {outcome}
// placeholder so subscribers can listen for failures only. When a stream
// key is configured the event is also appended with XADD in the same
// MULTI/EXEC, giving late consumers a durable, trimmed history.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/justapithecus/hessian/adapter"
)

// DefaultChannel is the default pub/sub channel name.
const DefaultChannel = "hessian:session_completed"

// OutcomePlaceholder in a channel name is replaced by the session outcome.
const OutcomePlaceholder = "{outcome}"

// DefaultTimeout bounds one publish attempt.
const DefaultTimeout = 5 * time.Second

// DefaultStreamMaxLen caps the stream length when a stream is configured.
const DefaultStreamMaxLen = 10000

// Config configures the Redis adapter.
type Config struct {
	// URL is the connection URL (required), redis://[:password@]host:port[/db].
	URL string
	// Channel is the pub/sub channel; may contain {outcome}.
	Channel string
	// Stream, if set, also receives every event via XADD.
	Stream string
	// StreamMaxLen trims the stream (default DefaultStreamMaxLen).
	StreamMaxLen int64
	// Timeout bounds each attempt (default DefaultTimeout).
	Timeout time.Duration
	// Retries is the number of retry attempts on failure.
	Retries int
}

// Adapter announces session completion events on Redis.
type Adapter struct {
	config Config
	client *goredis.Client
}

// New creates a Redis adapter from the given config.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis adapter requires a URL")
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis adapter: invalid URL: %w", err)
	}

	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Stream != "" && cfg.StreamMaxLen <= 0 {
		cfg.StreamMaxLen = DefaultStreamMaxLen
	}

	return &Adapter{config: cfg, client: goredis.NewClient(opts)}, nil
}

// ChannelFor returns the channel an outcome is published on.
func (a *Adapter) ChannelFor(outcome string) string {
	return strings.ReplaceAll(a.config.Channel, OutcomePlaceholder, outcome)
}

// Publish announces the event, retrying with backoff.
func (a *Adapter) Publish(ctx context.Context, event *adapter.SessionCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: marshal event: %w", err)
	}

	attempts := 1 + a.config.Retries
	var lastErr error
	for i := range attempts {
		if i > 0 {
			if err := adapter.Wait(ctx, i); err != nil {
				return fmt.Errorf("redis: canceled during backoff: %w", err)
			}
		} else if err := ctx.Err(); err != nil {
			return fmt.Errorf("redis: canceled: %w", err)
		}

		lastErr = a.send(ctx, event, body)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, goredis.ErrClosed) {
			break
		}
	}
	return fmt.Errorf("redis: failed after %d attempts: %w", attempts, lastErr)
}

// send runs one attempt.
func (a *Adapter) send(ctx context.Context, event *adapter.SessionCompletedEvent, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	channel := a.ChannelFor(event.Outcome)
	if a.config.Stream == "" {
		return a.client.Publish(ctx, channel, body).Err()
	}

	_, err := a.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.XAdd(ctx, &goredis.XAddArgs{
			Stream: a.config.Stream,
			MaxLen: a.config.StreamMaxLen,
			Values: []any{
				"session_id", event.SessionID,
				"outcome", event.Outcome,
				"event", string(body),
			},
		})
		pipe.Publish(ctx, channel, body)
		return nil
	})
	return err
}

// Close releases the connection pool.
func (a *Adapter) Close() error {
	return a.client.Close()
}

var _ adapter.Adapter = (*Adapter)(nil)
