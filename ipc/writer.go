package ipc

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/justapithecus/hessian/policy"
	"github.com/justapithecus/hessian/types"
)

// EventFrameWriter writes event records as msgpack frames.
// It implements policy.Sink, so a policy can stream records to a file or pipe.
type EventFrameWriter struct {
	mu     sync.Mutex
	buf    *bufio.Writer
	enc    *FrameEncoder
	closer io.Closer
	frames int64
	closed bool
}

// NewEventFrameWriter creates a writer over w.
// If w is an io.Closer it is closed by Close.
func NewEventFrameWriter(w io.Writer) *EventFrameWriter {
	buf := bufio.NewWriter(w)
	fw := &EventFrameWriter{
		buf: buf,
		enc: NewFrameEncoder(buf),
	}
	if c, ok := w.(io.Closer); ok {
		fw.closer = c
	}
	return fw
}

// WriteEvents encodes and writes each record in order, then flushes.
func (w *EventFrameWriter) WriteEvents(ctx context.Context, records []*types.EventRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := EncodeEventFrame(record)
		if err != nil {
			return err
		}
		if err := w.enc.WriteFrame(payload); err != nil {
			return err
		}
		w.frames++
	}
	return w.flush()
}

// WriteSummary writes a session summary frame and flushes.
func (w *EventFrameWriter) WriteSummary(summary *types.SessionSummary) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	payload, err := EncodeSummaryFrame(summary)
	if err != nil {
		return err
	}
	if err := w.enc.WriteFrame(payload); err != nil {
		return err
	}
	w.frames++
	return w.flush()
}

// Frames returns the number of frames written.
func (w *EventFrameWriter) Frames() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

// Close flushes buffered frames and closes the underlying writer.
func (w *EventFrameWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	flushErr := w.flush()
	if w.closer != nil {
		if err := w.closer.Close(); err != nil && flushErr == nil {
			return err
		}
	}
	return flushErr
}

func (w *EventFrameWriter) flush() error {
	if err := w.buf.Flush(); err != nil {
		return &FrameError{
			Kind: FrameErrorWrite,
			Msg:  "failed to flush frames",
			Err:  err,
		}
	}
	return nil
}

// Verify EventFrameWriter implements policy.Sink.
var _ policy.Sink = (*EventFrameWriter)(nil)

// ReadRecords reads every frame from r and decodes it with DecodeFrame.
// Returns the records in stream order; stops at the first error.
func ReadRecords(r io.Reader) ([]any, error) {
	dec := NewFrameDecoder(r)
	var out []any
	for {
		payload, err := dec.ReadFrame()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		rec, err := DecodeFrame(payload)
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
