// Package lode persists decoded event records and session summaries to a
// Lode dataset, on the local filesystem or S3.
package lode

import (
	"context"
	"sync"
	"time"

	"github.com/justapithecus/hessian/policy"
	"github.com/justapithecus/hessian/types"
)

// DefaultDataset is the dataset ID used when none is configured.
const DefaultDataset = "hessian"

// DeriveDay computes the partition day from session start time.
// Format: YYYY-MM-DD in UTC.
func DeriveDay(startTime time.Time) string {
	return startTime.UTC().Format("2006-01-02")
}

// Config holds Lode sink configuration.
// All partition keys are required.
type Config struct {
	// Dataset is the Lode dataset ID.
	Dataset string
	// Source is the partition key for the byte stream origin.
	Source string
	// Day is the partition key derived from session start time (YYYY-MM-DD UTC).
	Day string
	// SessionID is the partition key for the session identifier.
	SessionID string
}

// ConfigFor builds a Config from session metadata.
func ConfigFor(dataset string, meta *types.SessionMeta) Config {
	if dataset == "" {
		dataset = DefaultDataset
	}
	return Config{
		Dataset:   dataset,
		Source:    meta.Source,
		Day:       DeriveDay(meta.StartedAt),
		SessionID: meta.SessionID,
	}
}

// Client abstracts the Lode storage client.
type Client interface {
	// WriteEvents writes a batch of event records.
	// Must preserve ordering within the batch.
	WriteEvents(ctx context.Context, records []*types.EventRecord) error

	// WriteSummary writes the session summary record.
	WriteSummary(ctx context.Context, summary *types.SessionSummary) error

	// Close releases client resources.
	Close() error
}

// Sink is a Lode-backed implementation of policy.Sink.
type Sink struct {
	client Client
}

// NewSink creates a new Lode sink.
func NewSink(client Client) *Sink {
	return &Sink{client: client}
}

// WriteEvents implements policy.Sink.
func (s *Sink) WriteEvents(ctx context.Context, records []*types.EventRecord) error {
	return s.client.WriteEvents(ctx, records)
}

// Close implements policy.Sink.
func (s *Sink) Close() error {
	return s.client.Close()
}

// Verify Sink implements policy.Sink.
var _ policy.Sink = (*Sink)(nil)

// StubClient is a test client that accepts writes without persisting.
type StubClient struct {
	mu sync.Mutex

	Batches   [][]*types.EventRecord
	Summaries []*types.SessionSummary
	Closed    bool

	// WriteErr, if non-nil, is returned by WriteEvents and WriteSummary.
	WriteErr error
}

// NewStubClient creates a new stub client.
func NewStubClient() *StubClient {
	return &StubClient{}
}

// WriteEvents implements Client.
func (c *StubClient) WriteEvents(_ context.Context, records []*types.EventRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.WriteErr != nil {
		return c.WriteErr
	}
	c.Batches = append(c.Batches, records)
	return nil
}

// WriteSummary implements Client.
func (c *StubClient) WriteSummary(_ context.Context, summary *types.SessionSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.WriteErr != nil {
		return c.WriteErr
	}
	c.Summaries = append(c.Summaries, summary)
	return nil
}

// Close implements Client.
func (c *StubClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return nil
}

// Verify StubClient implements Client.
var _ Client = (*StubClient)(nil)
