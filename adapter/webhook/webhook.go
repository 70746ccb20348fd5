// Package webhook publishes session completion events as HTTP POST requests.
//
// Every attempt of one publish carries the same delivery id, so receivers
// can drop duplicates. Network errors, 429 and 5xx responses are retried;
// any other non-2xx response fails immediately.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/justapithecus/hessian/adapter"
	"github.com/justapithecus/hessian/iox"
)

// Defaults applied by New.
const (
	DefaultTimeout = 10 * time.Second
	DefaultRetries = 3
)

// Request headers set on every delivery.
const (
	// SignatureHeader carries "sha256=<hex HMAC>" of the body when a secret is set.
	SignatureHeader = "X-Hessian-Signature"
	// DeliveryHeader is stable across the attempts of one publish.
	DeliveryHeader = "X-Hessian-Delivery"
	// EventHeader names the event type.
	EventHeader = "X-Hessian-Event"
)

// maxRetryAfter caps a server-requested delay.
const maxRetryAfter = 30 * time.Second

// Config configures the webhook adapter.
type Config struct {
	// URL is the HTTP endpoint to POST to (required).
	URL string
	// Headers are added to each request.
	Headers map[string]string
	// Secret, if set, signs each body into SignatureHeader.
	Secret string
	// Timeout is the per-request timeout (default 10s).
	Timeout time.Duration
	// Retries is the number of retry attempts after the first.
	Retries int
}

// Adapter publishes session completion events via HTTP POST.
type Adapter struct {
	config Config
	client *http.Client
}

// New creates a webhook adapter from the given config.
func New(cfg Config) (*Adapter, error) {
	switch {
	case cfg.URL == "":
		return nil, errors.New("webhook adapter requires a URL")
	case cfg.Retries < 0:
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Adapter{config: cfg, client: &http.Client{Timeout: cfg.Timeout}}, nil
}

// delivery is one publish: a fixed body and id sent up to 1+Retries times.
type delivery struct {
	id        string
	eventType string
	body      []byte
	signature string
}

// Publish sends the event as a JSON POST request.
func (a *Adapter) Publish(ctx context.Context, event *adapter.SessionCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}
	d := delivery{id: uuid.NewString(), eventType: event.EventType, body: body}
	if a.config.Secret != "" {
		d.signature = Sign(a.config.Secret, body)
	}

	attempts := a.config.Retries + 1
	var lastErr error
	for i := range attempts {
		if i > 0 {
			if err := a.pause(ctx, i, lastErr); err != nil {
				return fmt.Errorf("webhook: canceled before attempt %d: %w", i+1, err)
			}
		} else if err := ctx.Err(); err != nil {
			return fmt.Errorf("webhook: %w", err)
		}

		lastErr = a.send(ctx, d)
		if lastErr == nil {
			return nil
		}
		var statusErr *StatusError
		if errors.As(lastErr, &statusErr) && !statusErr.Retriable() {
			return fmt.Errorf("webhook: delivery %s rejected: %w", d.id, lastErr)
		}
	}
	return fmt.Errorf("webhook: delivery %s failed after %d attempts: %w", d.id, attempts, lastErr)
}

// pause waits before retry i, preferring the server's Retry-After.
func (a *Adapter) pause(ctx context.Context, i int, prev error) error {
	var statusErr *StatusError
	if !errors.As(prev, &statusErr) || statusErr.RetryAfter <= 0 {
		return adapter.Wait(ctx, i)
	}
	timer := time.NewTimer(min(statusErr.RetryAfter, maxRetryAfter))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (a *Adapter) send(ctx context.Context, d delivery) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.URL, bytes.NewReader(d.body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range a.config.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(DeliveryHeader, d.id)
	req.Header.Set(EventHeader, d.eventType)
	if d.signature != "" {
		req.Header.Set(SignatureHeader, d.signature)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer iox.DiscardClose(resp.Body)
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &StatusError{Code: resp.StatusCode, RetryAfter: retryAfter(resp.Header.Get("Retry-After"))}
}

// retryAfter parses a delay-seconds Retry-After value. HTTP dates are ignored.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	Code int
	// RetryAfter is the server-requested delay, zero if none.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Retriable reports whether the status warrants another attempt.
func (e *StatusError) Retriable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500 || e.Code < 400
}

// Sign returns "sha256=" followed by the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Close releases idle connections.
func (a *Adapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

var _ adapter.Adapter = (*Adapter)(nil)
