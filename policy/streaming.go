package policy

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/justapithecus/hessian/log"
	"github.com/justapithecus/hessian/types"
)

// StreamingConfig configures a StreamingPolicy. At least one trigger must be set.
type StreamingConfig struct {
	// FlushCount flushes once N records are pending.
	FlushCount int
	// FlushMessages flushes at the first record of a new top-level message
	// once N complete messages are pending, so batches end on a message
	// boundary.
	FlushMessages int
	// FlushInterval flushes pending records every interval.
	FlushInterval time.Duration
	// Logger is optional.
	Logger *log.Logger
}

// FlushTrigger identifies what caused a flush.
type FlushTrigger string

// Flush triggers.
const (
	FlushTriggerCount       FlushTrigger = "count"
	FlushTriggerMessage     FlushTrigger = "message"
	FlushTriggerInterval    FlushTrigger = "interval"
	FlushTriggerTermination FlushTrigger = "termination"
)

// ErrStreamingInvalidConfig is returned when no flush trigger is configured.
var ErrStreamingInvalidConfig = errors.New("invalid streaming config: one of FlushCount, FlushMessages or FlushInterval must be set")

// StreamingPolicy persists records continuously in batches.
//
// Every record is persisted in seq order. A failed batch is put back ahead
// of newer records and retried on the next trigger. Ingestion only holds mu
// briefly, so it continues while a write is in flight; flushMu keeps writes
// ordered.
type StreamingPolicy struct {
	sink   Sink
	config StreamingConfig
	logger *log.Logger

	flushMu sync.Mutex

	mu           sync.Mutex
	pending      []*types.EventRecord
	pendingBytes int64
	lastMessage  int64 // -1 before the first record
	doneMessages int   // complete messages among pending
	stats        *statsRecorder
	triggers     map[FlushTrigger]int64

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewStreamingPolicy creates a streaming policy and starts its interval
// loop when FlushInterval is set.
func NewStreamingPolicy(sink Sink, config StreamingConfig) (*StreamingPolicy, error) {
	if config.FlushCount <= 0 && config.FlushMessages <= 0 && config.FlushInterval <= 0 {
		return nil, ErrStreamingInvalidConfig
	}

	p := &StreamingPolicy{
		sink:        sink,
		config:      config,
		logger:      config.Logger,
		lastMessage: -1,
		stats:       newStatsRecorder(),
		triggers:    make(map[FlushTrigger]int64, 4),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	if config.FlushInterval > 0 {
		go p.tick()
	} else {
		close(p.done)
	}
	return p, nil
}

// IngestEvent queues the record, flushing first when it opens a message
// past the message threshold and afterwards when the count threshold is hit.
// A failed message flush still queues the record before reporting.
func (p *StreamingPolicy) IngestEvent(ctx context.Context, record *types.EventRecord) error {
	p.mu.Lock()
	p.stats.incTotalEventsLocked()
	boundary := false
	if record.Message > p.lastMessage {
		if p.lastMessage >= 0 {
			p.doneMessages += int(record.Message - p.lastMessage)
		}
		p.lastMessage = record.Message
		boundary = p.config.FlushMessages > 0 && p.doneMessages >= p.config.FlushMessages
	}
	p.mu.Unlock()

	var err error
	if boundary {
		err = p.flush(ctx, FlushTriggerMessage)
	}

	p.mu.Lock()
	p.pending = append(p.pending, record)
	p.pendingBytes += estimateRecordSize(record)
	full := p.config.FlushCount > 0 && len(p.pending) >= p.config.FlushCount
	p.mu.Unlock()

	if err != nil {
		return err
	}
	if full {
		return p.flush(ctx, FlushTriggerCount)
	}
	return nil
}

// Flush writes everything pending (termination trigger).
func (p *StreamingPolicy) Flush(ctx context.Context) error {
	return p.flush(ctx, FlushTriggerTermination)
}

func (p *StreamingPolicy) flush(ctx context.Context, trigger FlushTrigger) error {
	p.flushMu.Lock()
	defer p.flushMu.Unlock()

	p.mu.Lock()
	p.triggers[trigger]++
	p.stats.incFlushLocked()
	batch, batchBytes, batchMessages := p.pending, p.pendingBytes, p.doneMessages
	p.pending, p.pendingBytes, p.doneMessages = nil, 0, 0
	p.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	if err := p.sink.WriteEvents(ctx, batch); err != nil {
		p.mu.Lock()
		p.stats.incErrorsLocked()
		p.pending = append(batch, p.pending...)
		p.pendingBytes += batchBytes
		p.doneMessages += batchMessages
		p.mu.Unlock()
		p.log("streaming flush failed", trigger, len(batch), err)
		return err
	}

	p.mu.Lock()
	p.stats.incEventsPersistedLocked(int64(len(batch)))
	p.mu.Unlock()
	p.log("streaming flush", trigger, len(batch), nil)
	return nil
}

// Close stops the interval loop, flushes, then closes the sink.
func (p *StreamingPolicy) Close() error {
	p.closeOnce.Do(func() { close(p.stop) })
	<-p.done

	return errors.Join(p.Flush(context.Background()), p.sink.Close())
}

// Stats returns policy statistics.
func (p *StreamingPolicy) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stats.snapshotLocked(p.pendingBytes, int64(len(p.pending)))
}

// FlushTriggerStats returns flush counts per trigger.
func (p *StreamingPolicy) FlushTriggerStats() map[FlushTrigger]int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := map[FlushTrigger]int64{
		FlushTriggerCount:       0,
		FlushTriggerMessage:     0,
		FlushTriggerInterval:    0,
		FlushTriggerTermination: 0,
	}
	for k, v := range p.triggers {
		out[k] = v
	}
	return out
}

func (p *StreamingPolicy) tick() {
	defer close(p.done)

	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			idle := len(p.pending) == 0
			p.mu.Unlock()
			if !idle {
				// A failed batch stays pending for the next trigger.
				_ = p.flush(context.Background(), FlushTriggerInterval)
			}
		}
	}
}

func (p *StreamingPolicy) log(msg string, trigger FlushTrigger, events int, err error) {
	if p.logger == nil {
		return
	}
	fields := map[string]any{
		"trigger": string(trigger),
		"events":  events,
		"policy":  NameStreaming,
	}
	if err != nil {
		fields["error"] = err.Error()
		p.logger.Error(msg, fields)
		return
	}
	p.logger.Info(msg, fields)
}

var _ Policy = (*StreamingPolicy)(nil)
