package policy

import (
	"context"
	"sync"

	"github.com/justapithecus/hessian/types"
)

// Sink abstracts persistence for policies.
// Implementations may write to storage, forward to a stream, or stub for testing.
//
// Methods are batch-oriented to support both strict (batch of 1) and buffered policies.
type Sink interface {
	// WriteEvents persists a batch of event records.
	// Must preserve ordering within the batch.
	// Returns error on failure; caller decides whether to retry or fail.
	WriteEvents(ctx context.Context, records []*types.EventRecord) error

	// Close releases any resources held by the sink.
	Close() error
}

// StubSink is a test sink that accepts writes without persisting.
// Tracks write statistics for test assertions.
type StubSink struct {
	mu sync.Mutex

	// EventsWritten is the total count of records written.
	EventsWritten int64
	// EventBatches is the number of WriteEvents calls.
	EventBatches int64
	// Closed indicates whether Close was called.
	Closed bool

	// WrittenEvents stores all written records for inspection.
	WrittenEvents []*types.EventRecord
	// BatchSizes records the length of each batch in call order.
	BatchSizes []int

	// ErrorOnWrite, if non-nil, is returned by WriteEvents.
	ErrorOnWrite error
}

// NewStubSink creates a new stub sink for testing.
func NewStubSink() *StubSink {
	return &StubSink{
		WrittenEvents: make([]*types.EventRecord, 0),
		BatchSizes:    make([]int, 0),
	}
}

// WriteEvents records the batch without persisting.
func (s *StubSink) WriteEvents(_ context.Context, records []*types.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ErrorOnWrite != nil {
		return s.ErrorOnWrite
	}

	s.EventBatches++
	s.EventsWritten += int64(len(records))
	s.WrittenEvents = append(s.WrittenEvents, records...)
	s.BatchSizes = append(s.BatchSizes, len(records))

	return nil
}

// SetError sets the error returned by subsequent writes.
func (s *StubSink) SetError(err error) {
	s.mu.Lock()
	s.ErrorOnWrite = err
	s.mu.Unlock()
}

// Close marks the sink as closed.
func (s *StubSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Closed = true
	return nil
}

// Stats returns a snapshot of sink statistics.
func (s *StubSink) Stats() StubSinkStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StubSinkStats{
		EventsWritten: s.EventsWritten,
		EventBatches:  s.EventBatches,
		Closed:        s.Closed,
	}
}

// StubSinkStats is a snapshot of StubSink statistics.
type StubSinkStats struct {
	EventsWritten int64
	EventBatches  int64
	Closed        bool
}

// MultiSink fans each batch out to several sinks in order.
// The first failing sink aborts the batch.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a sink writing to every sink in order.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// WriteEvents writes the batch to each sink.
func (m *MultiSink) WriteEvents(ctx context.Context, records []*types.EventRecord) error {
	for _, s := range m.sinks {
		if err := s.WriteEvents(ctx, records); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and returns the first error.
func (m *MultiSink) Close() error {
	var first error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
