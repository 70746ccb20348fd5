package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/justapithecus/hessian/hessian"
	"github.com/justapithecus/hessian/iox"
	"github.com/justapithecus/hessian/ipc"
	"github.com/justapithecus/hessian/log"
	"github.com/justapithecus/hessian/metrics"
	"github.com/justapithecus/hessian/policy"
	"github.com/justapithecus/hessian/types"
)

// DefaultChunkSize is the raw-mode read size.
const DefaultChunkSize = 32 * 1024

// IngestionConfig configures how the engine reads and decodes its input.
type IngestionConfig struct {
	// Framed reads 4-byte length-prefixed frames instead of a raw stream.
	// Every frame holds whole messages: a message left open at the end of a
	// frame is truncated, and both id tables are cleared between frames.
	Framed bool
	// Scope is the decoder id scope.
	Scope hessian.Scope
	// MaxDepth bounds decoder nesting; zero is unbounded.
	MaxDepth int
	// BuildValues also assembles value trees for every complete message.
	BuildValues bool
	// Capture retains every decoded byte for a sidecar capture file.
	Capture bool
	// ChunkSize is the raw-mode read size (default DefaultChunkSize).
	ChunkSize int
}

// IngestionEngine drives a hessian decoder over one input stream.
//   - Events are converted to records and handed to the policy in byte order
//   - Sequence numbers are strictly monotonic, starting at 1
//   - Decode errors are fatal (no resync)
//   - A policy failure stops the decoder at the offending event
type IngestionEngine struct {
	config    IngestionConfig
	input     *iox.CountingReader
	frames    *ipc.FrameDecoder
	decoder   *hessian.Decoder
	builder   *hessian.Builder
	policy    policy.Policy
	logger    *log.Logger
	meta      *types.SessionMeta
	collector *metrics.Collector
	capture   *bytes.Buffer
	now       func() time.Time

	// ctx is the context of the running ingestion; the decoder sink has none.
	ctx         context.Context
	seq         int64
	messages    int64
	definitions int
	policyErr   error
}

// NewIngestionEngine creates a new ingestion engine.
func NewIngestionEngine(
	reader io.Reader,
	pol policy.Policy,
	config IngestionConfig,
	logger *log.Logger,
	meta *types.SessionMeta,
	collector *metrics.Collector,
) *IngestionEngine {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}
	e := &IngestionEngine{
		config:    config,
		input:     iox.NewCountingReader(reader),
		policy:    pol,
		logger:    logger,
		meta:      meta,
		collector: collector,
		now:       time.Now,
	}
	if config.Framed {
		e.frames = ipc.NewFrameDecoder(e.input)
	}
	if config.Capture {
		e.capture = &bytes.Buffer{}
	}

	var sink hessian.Sink = hessian.SinkFunc(e.emit)
	if config.BuildValues {
		e.builder = hessian.NewBuilder(config.Scope)
		sink = hessian.Tee(e.builder, sink)
	}
	e.decoder = hessian.NewDecoder(sink,
		hessian.WithScope(config.Scope),
		hessian.WithMaxDepth(config.MaxDepth),
	)
	return e
}

// Run runs the ingestion loop until end of input or a fatal error.
// Returns:
//   - nil: input ended between messages
//   - *SessionError with Kind=SessionErrorStream: read or framing error
//   - *SessionError with Kind=SessionErrorDecode: hessian decode error
//   - *SessionError with Kind=SessionErrorPolicy: delivery failure
//   - *SessionError with Kind=SessionErrorCanceled: context canceled
func (e *IngestionEngine) Run(ctx context.Context) error {
	e.ctx = ctx
	defer func() { e.ctx = nil }()

	buf := make([]byte, e.config.ChunkSize)
	for {
		select {
		case <-ctx.Done():
			return &SessionError{Kind: SessionErrorCanceled, Err: ctx.Err()}
		default:
		}

		chunk, err := e.next(buf)
		if len(chunk) > 0 {
			if decErr := e.feed(chunk); decErr != nil {
				return decErr
			}
		}
		if err == nil {
			if e.frames != nil {
				if frameErr := e.endFrame(); frameErr != nil {
					return frameErr
				}
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return e.finish()
		}

		e.logger.Error("input error", map[string]any{
			"error":  err.Error(),
			"offset": e.decoder.Offset(),
		})
		return &SessionError{Kind: SessionErrorStream, Err: fmt.Errorf("input error: %w", err)}
	}
}

// next returns the next chunk of hessian bytes. In raw mode chunk aliases buf.
func (e *IngestionEngine) next(buf []byte) ([]byte, error) {
	if e.frames == nil {
		n, err := e.input.Read(buf)
		return buf[:n], err
	}

	payload, err := e.frames.ReadFrame()
	if err != nil {
		return nil, err
	}
	e.collector.IncFramesRead()
	return payload, nil
}

// feed hands chunk to the decoder and accounts for it.
func (e *IngestionEngine) feed(chunk []byte) error {
	e.collector.AddBytes(int64(len(chunk)))
	if e.capture != nil {
		e.capture.Write(chunk)
	}

	_, err := e.decoder.Write(chunk)
	e.countMessages()
	if err != nil {
		return e.decodeFailure(err)
	}
	return nil
}

// endFrame closes the id scope at a frame boundary. The decoder must be
// between messages; its tables and the builder's are then cleared.
func (e *IngestionEngine) endFrame() error {
	if err := e.decoder.Close(); err != nil {
		return e.decodeFailure(err)
	}
	e.decoder.Reset()
	if e.builder != nil {
		e.builder.Reset()
	}
	return nil
}

// finish closes the decoder at end of input.
func (e *IngestionEngine) finish() error {
	if err := e.decoder.Close(); err != nil {
		return e.decodeFailure(err)
	}
	e.logger.Debug("input drained", map[string]any{
		"bytes":    e.decoder.Offset(),
		"messages": e.decoder.Messages(),
	})
	return nil
}

func (e *IngestionEngine) countMessages() {
	for done := e.decoder.Messages(); e.messages < done; e.messages++ {
		e.collector.IncMessages()
	}
}

// decodeFailure classifies a decoder error. A sink error carrying a policy
// failure is a delivery failure, not a decode failure.
func (e *IngestionEngine) decodeFailure(err error) error {
	if e.policyErr != nil {
		return &SessionError{Kind: SessionErrorPolicy, Err: fmt.Errorf("policy failure: %w", e.policyErr)}
	}

	kind := decodeErrorKind(err)
	e.collector.IncDecodeError(kind)
	e.logger.Error("decode error", map[string]any{
		"error":      err.Error(),
		"error_kind": kind,
		"offset":     e.decoder.Offset(),
		"messages":   e.decoder.Messages(),
	})
	return &SessionError{Kind: SessionErrorDecode, Err: err}
}

// emit is the decoder sink: one record per event, delivered through the policy.
func (e *IngestionEngine) emit(ev hessian.Event) error {
	e.seq++
	record := types.NewEventRecord(e.meta, e.seq, e.decoder.Messages(), ev, e.now())
	e.collector.IncEvent(string(ev.Type))
	if ev.Type == hessian.EventDefinition {
		e.definitions++
	}

	ctx := e.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := e.policy.IngestEvent(ctx, record); err != nil {
		e.policyErr = err
		e.logger.Error("policy ingestion failed", map[string]any{
			"event_type": ev.Type,
			"seq":        e.seq,
			"error":      err.Error(),
		})
		return err
	}
	return nil
}

// Seq returns the number of events emitted.
func (e *IngestionEngine) Seq() int64 {
	return e.seq
}

// Messages returns the number of complete top-level messages.
func (e *IngestionEngine) Messages() int64 {
	return e.decoder.Messages()
}

// Offset returns the number of bytes the decoder consumed.
func (e *IngestionEngine) Offset() int64 {
	return e.decoder.Offset()
}

// BytesRead returns the number of input bytes read, framing included.
func (e *IngestionEngine) BytesRead() int64 {
	return e.input.Count()
}

// DefinitionCount returns the number of definitions registered over the
// whole input, across scope resets.
func (e *IngestionEngine) DefinitionCount() int {
	return e.definitions
}

// Definitions returns the decoder's current definition table.
func (e *IngestionEngine) Definitions() []hessian.Definition {
	return e.decoder.Definitions()
}

// Values returns the assembled messages, or nil without BuildValues.
func (e *IngestionEngine) Values() []any {
	if e.builder == nil {
		return nil
	}
	return e.builder.Messages()
}

// Captured returns the decoded bytes, or nil without Capture.
func (e *IngestionEngine) Captured() []byte {
	if e.capture == nil {
		return nil
	}
	return e.capture.Bytes()
}
