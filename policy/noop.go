package policy

import (
	"context"
	"sync/atomic"

	"github.com/justapithecus/hessian/types"
)

// NoopPolicy counts records and persists none. The decode and inspect
// commands use it when only the value tree matters.
type NoopPolicy struct {
	received atomic.Int64
	flushes  atomic.Int64
}

// NewNoopPolicy creates a new no-op policy.
func NewNoopPolicy() *NoopPolicy {
	return &NoopPolicy{}
}

func (p *NoopPolicy) IngestEvent(context.Context, *types.EventRecord) error {
	p.received.Add(1)
	return nil
}

func (p *NoopPolicy) Flush(context.Context) error {
	p.flushes.Add(1)
	return nil
}

func (p *NoopPolicy) Close() error { return nil }

// Stats reports received records and flushes; nothing is ever persisted.
func (p *NoopPolicy) Stats() Stats {
	return Stats{TotalEvents: p.received.Load(), FlushCount: p.flushes.Load()}
}

var _ Policy = (*NoopPolicy)(nil)
