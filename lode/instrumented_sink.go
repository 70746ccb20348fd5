package lode

import (
	"context"

	"github.com/justapithecus/hessian/metrics"
	"github.com/justapithecus/hessian/policy"
	"github.com/justapithecus/hessian/types"
)

// Instrument wraps a sink so each non-empty batch write counts as a
// lode write success or failure on collector.
func Instrument(inner policy.Sink, collector *metrics.Collector) policy.Sink {
	return &instrumentedSink{Sink: inner, collector: collector}
}

type instrumentedSink struct {
	policy.Sink
	collector *metrics.Collector
}

func (s *instrumentedSink) WriteEvents(ctx context.Context, records []*types.EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.Sink.WriteEvents(ctx, records); err != nil {
		s.collector.IncLodeWriteFailure()
		return err
	}
	s.collector.IncLodeWriteSuccess()
	return nil
}
