package hessian

import (
	"fmt"
	"strings"
)

// Scope selects how long back-reference and definition ids stay valid.
// The transport fixes the scope; the decoder never infers it.
type Scope int

const (
	// ScopeMessage clears both tables whenever a top-level message completes.
	ScopeMessage Scope = iota
	// ScopeStream keeps both tables until Reset.
	ScopeStream
)

// ParseScope parses "message" or "stream". Empty selects ScopeMessage.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(s) {
	case "", "message":
		return ScopeMessage, nil
	case "stream", "connection":
		return ScopeStream, nil
	default:
		return 0, fmt.Errorf("invalid scope: %q (must be message or stream)", s)
	}
}

func (s Scope) String() string {
	if s == ScopeStream {
		return "stream"
	}
	return "message"
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithScope sets the id scope. The default is ScopeMessage.
func WithScope(scope Scope) Option {
	return func(d *Decoder) { d.scope = scope }
}

// WithMaxDepth bounds the state stack. Zero means unbounded.
func WithMaxDepth(n int) Option {
	return func(d *Decoder) { d.maxDepth = n }
}

// Decoder is an incremental decoder driven one byte at a time.
//
// Each byte moves the current state forward, pushes a child state (the
// parent is suspended on the stack) or completes a production (the parent
// is popped and resumed). Events are reported to the Sink in byte order.
// A Decoder is not safe for concurrent use; use one per byte stream.
type Decoder struct {
	sink     Sink
	scope    Scope
	maxDepth int

	initial *initialState
	cur     state
	stack   []state

	refs refTable
	defs defTable

	off      int64
	messages int64
	// field names the object field whose value is being started.
	field string

	err    error
	closed bool
}

// NewDecoder creates a decoder reporting to sink. A nil sink discards events.
func NewDecoder(sink Sink, opts ...Option) *Decoder {
	if sink == nil {
		sink = Discard
	}
	d := &Decoder{
		sink:    sink,
		initial: &initialState{},
		stack:   make([]state, 0, 16),
	}
	d.cur = d.initial
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Feed consumes one byte.
// After the first error the decoder is unusable and returns that error again.
func (d *Decoder) Feed(b byte) error {
	if d.err != nil {
		return d.err
	}
	if d.closed {
		d.err = &DecodeError{Kind: ErrorClosed, Offset: d.off, Byte: b, HasByte: true, Msg: "input after end of stream"}
		return d.err
	}
	if err := d.cur.next(d, b); err != nil {
		d.err = err
		return err
	}
	d.off++
	return nil
}

// Write feeds every byte of p, implementing io.Writer.
// On error n is the number of bytes consumed before the offending byte.
func (d *Decoder) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := d.Feed(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// Close signals end of stream, implementing io.Closer.
// A production still in progress is reported as ErrorTruncated.
func (d *Decoder) Close() error {
	if d.err != nil {
		return d.err
	}
	if d.closed {
		return nil
	}
	d.closed = true
	if !d.Idle() {
		d.err = &DecodeError{
			Kind:   ErrorTruncated,
			Offset: d.off,
			State:  d.cur.name(),
			Msg:    fmt.Sprintf("stream ended with %d open productions", len(d.stack)),
		}
		return d.err
	}
	return nil
}

// Reset returns the decoder to its initial state: empty stack, empty tables,
// no error. The byte offset keeps counting.
func (d *Decoder) Reset() {
	d.cur = d.initial
	d.stack = d.stack[:0]
	d.refs.reset()
	d.defs.reset()
	d.field = ""
	d.err = nil
	d.closed = false
}

// Idle returns true between top-level messages.
func (d *Decoder) Idle() bool {
	return d.cur == d.initial && len(d.stack) == 0
}

// Depth returns the number of suspended states on the stack.
func (d *Decoder) Depth() int {
	return len(d.stack)
}

// Offset returns the number of bytes consumed.
func (d *Decoder) Offset() int64 {
	return d.off
}

// Messages returns the number of completed top-level messages.
func (d *Decoder) Messages() int64 {
	return d.messages
}

// RefCount returns the current length of the back-reference table.
func (d *Decoder) RefCount() int {
	return d.refs.len()
}

// Definitions returns a copy of the current definition table.
func (d *Decoder) Definitions() []Definition {
	return d.defs.snapshot()
}

// Scope returns the configured id scope.
func (d *Decoder) Scope() Scope {
	return d.scope
}

// Err returns the fatal error, if any.
func (d *Decoder) Err() error {
	return d.err
}

// --- stack ---

func (d *Decoder) push(s state) error {
	if d.maxDepth > 0 && len(d.stack) >= d.maxDepth {
		return &DecodeError{
			Kind:   ErrorDepthExceeded,
			Offset: d.off,
			State:  s.name(),
			Msg:    fmt.Sprintf("nesting exceeds maximum depth %d", d.maxDepth),
		}
	}
	d.stack = append(d.stack, d.cur)
	d.cur = s
	return nil
}

func (d *Decoder) pop() {
	last := len(d.stack) - 1
	d.cur = d.stack[last]
	d.stack[last] = nil
	d.stack = d.stack[:last]
}

// finish completes the current production and resumes its parent with r.
func (d *Decoder) finish(r result) error {
	d.pop()
	return d.cur.child(d, r)
}

// deliver hands r, a production that needed no state of its own, to the
// current state.
func (d *Decoder) deliver(r result) error {
	return d.cur.child(d, r)
}

// resume pops back to the parent without a value; used by definitions.
func (d *Decoder) resume() {
	d.pop()
}

// endMessage runs when the initial state receives a complete message.
func (d *Decoder) endMessage() {
	d.messages++
	if d.scope == ScopeMessage {
		d.refs.reset()
		d.defs.reset()
	}
}

// --- events ---

func newEvent(t EventType, k Kind) Event {
	return Event{Type: t, Kind: k, ID: NoID, DefID: NoID}
}

func (d *Decoder) emit(ev Event) error {
	ev.Offset = d.off
	if err := d.sink.Emit(ev); err != nil {
		return &DecodeError{
			Kind:   ErrorSink,
			Offset: d.off,
			State:  d.cur.name(),
			Msg:    fmt.Sprintf("sink rejected %s event", ev.Type),
			Err:    err,
		}
	}
	return nil
}

// emitValue reports r as a scalar event; composites were already reported
// by their own open and close events.
func (d *Decoder) emitValue(r result) error {
	if !r.scalar() {
		return nil
	}
	ev := newEvent(EventScalar, r.kind)
	ev.Value = r.value
	if r.kind == KindRef {
		ev.ID = r.id
	}
	return d.emit(ev)
}

// --- errors ---

func (d *Decoder) errorf(kind ErrorKind, b byte, format string, args ...any) error {
	return &DecodeError{
		Kind:    kind,
		Offset:  d.off,
		State:   d.cur.name(),
		Byte:    b,
		HasByte: true,
		Msg:     fmt.Sprintf(format, args...),
	}
}

func (d *Decoder) unknownTag(b byte) error {
	return d.errorf(ErrorUnknownTag, b, "unrecognized tag")
}

// Events decodes data and returns every event.
func Events(data []byte, opts ...Option) ([]Event, error) {
	c := NewCollector()
	d := NewDecoder(c, opts...)
	if _, err := d.Write(data); err != nil {
		return c.Events, err
	}
	return c.Events, d.Close()
}

// Unmarshal decodes data and returns each top-level message as a value tree.
func Unmarshal(data []byte, opts ...Option) ([]any, error) {
	d := NewDecoder(nil, opts...)
	b := NewBuilder(d.scope)
	d.sink = b
	if _, err := d.Write(data); err != nil {
		return b.Messages(), err
	}
	if err := d.Close(); err != nil {
		return b.Messages(), err
	}
	return b.Messages(), nil
}
