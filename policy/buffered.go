package policy

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/justapithecus/hessian/log"
	"github.com/justapithecus/hessian/types"
)

// BufferedConfig configures a BufferedPolicy.
type BufferedConfig struct {
	// MaxBufferEvents is the maximum number of records to buffer.
	// Zero means no limit (use MaxBufferBytes instead).
	MaxBufferEvents int

	// MaxBufferBytes is the maximum buffer size in bytes (estimated).
	// Zero means no limit (use MaxBufferEvents instead).
	// At least one limit must be set.
	MaxBufferBytes int64

	// Logger is an optional logger for policy observability.
	// If nil, no logging is emitted.
	Logger *log.Logger
}

// DefaultBufferedConfig returns sensible defaults for buffered policy.
func DefaultBufferedConfig() BufferedConfig {
	return BufferedConfig{
		MaxBufferEvents: 1000,
		MaxBufferBytes:  10 * 1024 * 1024, // 10 MB
	}
}

// ErrBufferFull is returned when the buffer is full and the flush that
// would make room failed.
var ErrBufferFull = errors.New("buffer full: flush to make room failed")

// ErrInvalidConfig is returned when BufferedConfig is invalid.
var ErrInvalidConfig = errors.New("invalid config: at least one of MaxBufferEvents or MaxBufferBytes must be set")

// BufferedPolicy implements bounded buffering with batch writes.
//
//   - Bounded buffer with explicit limits
//   - A full buffer is flushed as one batch before the next record is accepted
//   - Records are never dropped; they are written in seq order
//   - On flush failure the buffer is preserved for the next flush
//
// A single record larger than MaxBufferBytes is written through as a batch of
// one once the buffer ahead of it has been flushed.
type BufferedPolicy struct {
	sink   Sink
	config BufferedConfig
	logger *log.Logger

	mu          sync.Mutex // guards buffer state and stats
	buffer      []*types.EventRecord
	bufferBytes int64
	stats       *statsRecorder
}

// NewBufferedPolicy creates a new buffered policy.
// Returns error if config is invalid.
func NewBufferedPolicy(sink Sink, config BufferedConfig) (*BufferedPolicy, error) {
	if config.MaxBufferEvents <= 0 && config.MaxBufferBytes <= 0 {
		return nil, ErrInvalidConfig
	}

	return &BufferedPolicy{
		sink:   sink,
		config: config,
		logger: config.Logger,
		buffer: make([]*types.EventRecord, 0, min(max(config.MaxBufferEvents, 100), 4096)),
		stats:  newStatsRecorder(),
	}, nil
}

// IngestEvent buffers the record, flushing first if it would not fit.
func (p *BufferedPolicy) IngestEvent(ctx context.Context, record *types.EventRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.incTotalEventsLocked()
	size := estimateRecordSize(record)

	if p.hasRoom(size) {
		p.append(record, size)
		return nil
	}

	if len(p.buffer) > 0 {
		if err := p.flushLocked(ctx, "buffer_full"); err != nil {
			p.logBufferOverflow(err)
			return fmt.Errorf("%w: %w", ErrBufferFull, err)
		}
	}

	if p.hasRoom(size) {
		p.append(record, size)
		return nil
	}

	// Oversized record: write through.
	if err := p.sink.WriteEvents(ctx, []*types.EventRecord{record}); err != nil {
		p.stats.incErrorsLocked()
		return err
	}
	p.stats.incEventsPersistedLocked(1)
	return nil
}

// hasRoom reports whether a record of the given size fits. Caller must hold mu.
func (p *BufferedPolicy) hasRoom(size int64) bool {
	if p.config.MaxBufferEvents > 0 && len(p.buffer) >= p.config.MaxBufferEvents {
		return false
	}
	if p.config.MaxBufferBytes > 0 && p.bufferBytes+size > p.config.MaxBufferBytes {
		return false
	}
	return true
}

// append adds a record to the buffer. Caller must hold mu.
func (p *BufferedPolicy) append(record *types.EventRecord, size int64) {
	p.buffer = append(p.buffer, record)
	p.bufferBytes += size
}

// Flush writes all buffered records as a single batch.
// On failure the buffer is preserved and the error returned.
func (p *BufferedPolicy) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.flushLocked(ctx, "flush")
}

// flushLocked writes the buffer. Caller must hold mu.
func (p *BufferedPolicy) flushLocked(ctx context.Context, reason string) error {
	p.stats.incFlushLocked()

	if len(p.buffer) == 0 {
		return nil
	}

	n := len(p.buffer)
	if err := p.sink.WriteEvents(ctx, p.buffer); err != nil {
		p.stats.incErrorsLocked()
		p.logFlushFailure(reason, n, err)
		return err
	}

	p.stats.incEventsPersistedLocked(int64(n))
	p.buffer = make([]*types.EventRecord, 0, cap(p.buffer))
	p.bufferBytes = 0
	p.logFlush(reason, n)
	return nil
}

// Close flushes remaining records and closes the sink.
// A flush failure is returned after the sink is closed.
func (p *BufferedPolicy) Close() error {
	flushErr := p.Flush(context.Background())
	closeErr := p.sink.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// Stats returns policy statistics.
// The buffer mutex is held while taking the snapshot, so counters and buffer
// state are consistent.
func (p *BufferedPolicy) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stats.snapshotLocked(p.bufferBytes, int64(len(p.buffer)))
}

// --- Logging helpers ---

func (p *BufferedPolicy) logFlush(reason string, events int) {
	if p.logger == nil {
		return
	}
	p.logger.Debug("buffered flush", map[string]any{
		"reason": reason,
		"events": events,
		"policy": NameBuffered,
	})
}

func (p *BufferedPolicy) logFlushFailure(reason string, events int, err error) {
	if p.logger == nil {
		return
	}
	p.logger.Error("buffered flush failed", map[string]any{
		"reason": reason,
		"events": events,
		"error":  err.Error(),
		"policy": NameBuffered,
	})
}

func (p *BufferedPolicy) logBufferOverflow(err error) {
	if p.logger == nil {
		return
	}
	p.logger.Error("buffer overflow", map[string]any{
		"buffer_events": len(p.buffer),
		"buffer_bytes":  p.bufferBytes,
		"error":         err.Error(),
		"policy":        NameBuffered,
	})
}

// Verify BufferedPolicy implements Policy.
var _ Policy = (*BufferedPolicy)(nil)
