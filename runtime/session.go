package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/justapithecus/hessian/adapter"
	"github.com/justapithecus/hessian/hessian"
	"github.com/justapithecus/hessian/lode"
	"github.com/justapithecus/hessian/log"
	"github.com/justapithecus/hessian/metrics"
	"github.com/justapithecus/hessian/policy"
	"github.com/justapithecus/hessian/types"
)

// DefaultCaptureName is the sidecar filename of the raw byte capture.
const DefaultCaptureName = "capture.hessian"

// flushTimeout bounds the final policy flush, which ignores cancellation.
const flushTimeout = 30 * time.Second

// notifyTimeout bounds the adapter publish.
const notifyTimeout = 15 * time.Second

// SummaryWriter persists the session summary.
type SummaryWriter interface {
	WriteSummary(ctx context.Context, summary *types.SessionSummary) error
}

// SummaryWriterFunc adapts a function to SummaryWriter.
type SummaryWriterFunc func(ctx context.Context, summary *types.SessionSummary) error

// WriteSummary calls f(ctx, summary).
func (f SummaryWriterFunc) WriteSummary(ctx context.Context, summary *types.SessionSummary) error {
	return f(ctx, summary)
}

// SessionConfig configures a single decode session.
type SessionConfig struct {
	// Meta is the session identity.
	Meta *types.SessionMeta
	// Input is the byte stream to decode.
	Input io.Reader
	// Ingestion selects framing, scope, depth and value building.
	Ingestion IngestionConfig
	// Policy is the event delivery policy.
	Policy policy.Policy
	// Summaries, if set, receives the session summary after the flush.
	Summaries SummaryWriter
	// Captures, if set, stores the decoded bytes as a sidecar file.
	Captures lode.FileWriter
	// CaptureName is the capture filename (default DefaultCaptureName).
	CaptureName string
	// Adapter, if set, is notified once the session finishes. Failures are
	// logged and never change the outcome.
	Adapter adapter.Adapter
	// StoragePath is reported in the adapter event.
	StoragePath string
	// Collector is the metrics collector for this session.
	// If nil, no metrics are recorded (all Collector methods are nil-safe).
	Collector *metrics.Collector
	// Logger overrides the session logger.
	Logger *log.Logger
}

// SessionResult represents the result of a session.
type SessionResult struct {
	// Meta is the session identity.
	Meta *types.SessionMeta
	// Outcome is the session outcome.
	Outcome *types.Outcome
	// Duration is the total session duration.
	Duration time.Duration
	// Messages is the number of complete top-level messages.
	Messages int64
	// Events is the number of decoder events emitted.
	Events int64
	// Bytes is the number of bytes the decoder consumed.
	Bytes int64
	// Definitions is the number of object definitions registered.
	Definitions int
	// Stats is the policy statistics.
	Stats policy.Stats
	// Values holds the assembled messages when value building is enabled.
	Values []any
	// Summary is the record handed to the summary writer.
	Summary *types.SessionSummary
}

// Session orchestrates one decode session end to end.
type Session struct {
	config    *SessionConfig
	logger    *log.Logger
	startTime time.Time
}

// NewSessionID returns a fresh random session id.
func NewSessionID() string {
	return uuid.NewString()
}

// NewSession creates a new session.
// Returns error if metadata is invalid or required components are missing.
func NewSession(config *SessionConfig) (*Session, error) {
	if config.Meta == nil {
		return nil, errors.New("session metadata is required")
	}
	if config.Meta.SessionID == "" {
		config.Meta.SessionID = NewSessionID()
	}
	if err := config.Meta.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session metadata: %w", err)
	}
	if config.Input == nil {
		return nil, errors.New("session input is required")
	}
	if config.Policy == nil {
		return nil, errors.New("session policy is required")
	}
	if config.Meta.Scope == "" {
		config.Meta.Scope = config.Ingestion.Scope.String()
	}

	logger := config.Logger
	if logger == nil {
		logger = log.NewLogger(config.Meta)
	}

	return &Session{config: config, logger: logger}, nil
}

// Run executes the session end to end.
//
// Execution flow:
//  1. Decode the input, delivering events through the policy
//  2. Flush the policy (best effort on every path)
//  3. Determine the outcome
//  4. Store the capture and summary
//  5. Notify the adapter
//
// Run returns an error only for failures outside the decode itself;
// decode, stream and delivery failures are reported in the outcome.
func (s *Session) Run(ctx context.Context) (*SessionResult, error) {
	s.startTime = time.Now()
	if s.config.Meta.StartedAt.IsZero() {
		s.config.Meta.StartedAt = s.startTime
	}
	s.config.Collector.IncSessionStarted()

	s.logger.Info("starting session", map[string]any{
		"framed":    s.config.Ingestion.Framed,
		"max_depth": s.config.Ingestion.MaxDepth,
	})

	engine := NewIngestionEngine(
		s.config.Input,
		s.config.Policy,
		s.config.Ingestion,
		s.logger,
		s.config.Meta,
		s.config.Collector,
	)
	ingErr := engine.Run(ctx)

	// Always flush, even after cancellation; buffered events must not be lost.
	flushCtx, flushCancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	flushErr := s.config.Policy.Flush(flushCtx)
	flushCancel()
	if flushErr != nil {
		s.logger.Warn("policy flush failed", map[string]any{"error": flushErr.Error()})
		if ingErr == nil || !IsPolicyError(ingErr) {
			// A flush failure outranks decode outcomes: events were lost.
			ingErr = &SessionError{Kind: SessionErrorPolicy, Err: fmt.Errorf("policy flush failed: %w", flushErr)}
		}
	}

	outcome := DetermineOutcome(ingErr)
	result := s.buildResult(outcome, engine)

	s.logger.Info("session finished", map[string]any{
		"outcome":  outcome.Status,
		"messages": result.Messages,
		"events":   result.Events,
		"bytes":    result.Bytes,
		"duration": result.Duration.String(),
	})

	persistCtx, persistCancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer persistCancel()

	if err := s.storeCapture(persistCtx, engine.Captured()); err != nil {
		return result, err
	}
	if s.config.Summaries != nil {
		if err := s.config.Summaries.WriteSummary(persistCtx, result.Summary); err != nil {
			s.logger.Error("summary write failed", map[string]any{"error": err.Error()})
			return result, fmt.Errorf("failed to write session summary: %w", err)
		}
	}
	s.notify(ctx, result.Summary)

	return result, nil
}

// storeCapture writes the captured bytes as a sidecar file.
func (s *Session) storeCapture(ctx context.Context, data []byte) error {
	if s.config.Captures == nil || data == nil {
		return nil
	}
	name := s.config.CaptureName
	if name == "" {
		name = DefaultCaptureName
	}
	err := lode.PutCapture(ctx, s.config.Captures, types.CaptureFile{Filename: name, Data: data})
	if err != nil {
		s.logger.Error("capture write failed", map[string]any{
			"filename": name,
			"bytes":    len(data),
			"error":    err.Error(),
		})
		return fmt.Errorf("failed to store capture: %w", err)
	}
	s.logger.Debug("capture stored", map[string]any{"filename": name, "bytes": len(data)})
	return nil
}

// notify publishes the completion event. Failures are logged only.
func (s *Session) notify(ctx context.Context, summary *types.SessionSummary) {
	if s.config.Adapter == nil {
		return
	}
	event := adapter.NewSessionCompletedEvent(summary, lode.DeriveDay(s.config.Meta.StartedAt), s.config.StoragePath, time.Now())

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.config.Adapter.Publish(notifyCtx, event); err != nil {
		s.logger.Warn("adapter publish failed", map[string]any{"error": err.Error()})
		return
	}
	s.logger.Debug("adapter notified", map[string]any{"outcome": event.Outcome})
}

// buildResult constructs the final session result and records metrics.
func (s *Session) buildResult(outcome *types.Outcome, engine *IngestionEngine) *SessionResult {
	finished := time.Now()
	result := &SessionResult{
		Meta:        s.config.Meta,
		Outcome:     outcome,
		Duration:    finished.Sub(s.startTime),
		Messages:    engine.Messages(),
		Events:      engine.Seq(),
		Bytes:       engine.Offset(),
		Definitions: engine.DefinitionCount(),
		Stats:       s.config.Policy.Stats(),
		Values:      engine.Values(),
	}
	result.Summary = &types.SessionSummary{
		RecordKind:  types.SummaryRecordKind,
		SessionID:   s.config.Meta.SessionID,
		Source:      s.config.Meta.Source,
		Scope:       s.config.Meta.Scope,
		Outcome:     outcome.Status,
		Message:     outcome.Message,
		Messages:    result.Messages,
		Events:      result.Events,
		Bytes:       result.Bytes,
		Definitions: result.Definitions,
		StartedAt:   s.config.Meta.StartedAt.UTC().Format(time.RFC3339Nano),
		FinishedAt:  finished.UTC().Format(time.RFC3339Nano),
		DurationMs:  result.Duration.Milliseconds(),
	}

	if outcome.Status == types.OutcomeCompleted {
		s.config.Collector.IncSessionCompleted()
	} else {
		s.config.Collector.IncSessionFailed()
	}
	ps := result.Stats
	s.config.Collector.AbsorbPolicyStats(ps.TotalEvents, ps.EventsPersisted, ps.FlushCount)

	return result
}

// Scope parses the scope name recorded in the metadata.
func (r *SessionResult) Scope() hessian.Scope {
	scope, err := hessian.ParseScope(r.Meta.Scope)
	if err != nil {
		return hessian.ScopeMessage
	}
	return scope
}
