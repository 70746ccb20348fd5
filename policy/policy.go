// Package policy defines how decoded event records are delivered to a sink.
package policy

import (
	"context"
	"sync"

	"github.com/justapithecus/hessian/types"
)

// Policy defines the delivery policy interface.
// Policies control buffering and persistence behavior.
//
// Every policy delivers every record in seq order; decoded events are data
// and are never dropped. Policy failure terminates the session.
type Policy interface {
	// IngestEvent handles one event record.
	// Returns error on failure (terminates session).
	IngestEvent(ctx context.Context, record *types.EventRecord) error

	// Flush flushes any buffered data.
	// Called at message boundaries the runner chooses and at session end.
	Flush(ctx context.Context) error

	// Close cleans up policy resources.
	Close() error

	// Stats returns policy statistics for observability.
	// Returns an atomic snapshot of policy metrics at a point in time.
	Stats() Stats
}

// Stats represents policy observability metrics.
type Stats struct {
	// TotalEvents is the total number of records received.
	TotalEvents int64
	// EventsPersisted is the number of records written to the sink.
	EventsPersisted int64
	// BufferSize is the current buffer size in bytes (if buffered).
	BufferSize int64
	// BufferEvents is the current number of buffered records.
	BufferEvents int64
	// FlushCount is the number of flush operations.
	FlushCount int64
	// Errors is the count of sink errors encountered.
	Errors int64
}

// Names of the built-in policies.
const (
	NameStrict    = "strict"
	NameBuffered  = "buffered"
	NameStreaming = "streaming"
	NameNoop      = "noop"
)

// statsRecorder is an internal helper for thread-safe stats management.
// Policies call explicit methods to record mutations; recorder does not
// infer or automate any policy decisions.
//
// Lock discipline:
//   - StrictPolicy uses the locking methods (incTotalEvents, snapshot, etc.)
//   - BufferedPolicy and StreamingPolicy use the Locked methods only while
//     holding their own mu. This keeps buffer state and stats counters atomic.
type statsRecorder struct {
	mu    sync.Mutex
	stats Stats
}

func newStatsRecorder() *statsRecorder {
	return &statsRecorder{}
}

func (r *statsRecorder) incTotalEvents() {
	r.mu.Lock()
	r.stats.TotalEvents++
	r.mu.Unlock()
}

func (r *statsRecorder) incEventsPersisted(n int64) {
	r.mu.Lock()
	r.stats.EventsPersisted += n
	r.mu.Unlock()
}

func (r *statsRecorder) incErrors() {
	r.mu.Lock()
	r.stats.Errors++
	r.mu.Unlock()
}

func (r *statsRecorder) incFlush() {
	r.mu.Lock()
	r.stats.FlushCount++
	r.mu.Unlock()
}

func (r *statsRecorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// --- Locked methods ---
// Caller must hold the owning policy's mu.

func (r *statsRecorder) incTotalEventsLocked() {
	r.stats.TotalEvents++
}

func (r *statsRecorder) incEventsPersistedLocked(n int64) {
	r.stats.EventsPersisted += n
}

func (r *statsRecorder) incErrorsLocked() {
	r.stats.Errors++
}

func (r *statsRecorder) incFlushLocked() {
	r.stats.FlushCount++
}

// snapshotLocked returns an atomic snapshot of stats with the given buffer state.
func (r *statsRecorder) snapshotLocked(bufferBytes, bufferEvents int64) Stats {
	s := r.stats
	s.BufferSize = bufferBytes
	s.BufferEvents = bufferEvents
	return s
}

// estimateRecordSize returns an estimated encoded size in bytes for a record.
func estimateRecordSize(record *types.EventRecord) int64 {
	size := int64(160 + len(record.TypeName) + len(record.Field))
	for _, f := range record.Fields {
		size += int64(len(f)) + 2
	}
	switch v := record.Value.(type) {
	case string:
		size += int64(len(v))
	case []byte:
		size += int64(len(v))
	case nil:
	default:
		size += 16
	}
	return size
}
