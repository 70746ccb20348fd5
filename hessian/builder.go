package hessian

import "fmt"

// Builder is a Sink that assembles each top-level message into a value tree.
// Its scope must match the decoder's so ref ids resolve to the same tables.
type Builder struct {
	scope    Scope
	frames   []*frame
	refs     []any
	defs     []Definition
	messages []any
}

type frame struct {
	value any
	// map and fault entries alternate key, value
	key    any
	hasKey bool
	// envelope header whose value is pending
	header   string
	inHeader bool
}

// NewBuilder creates a builder for a decoder using scope.
func NewBuilder(scope Scope) *Builder {
	return &Builder{scope: scope, messages: make([]any, 0)}
}

// Messages returns the completed top-level messages in order.
func (b *Builder) Messages() []any {
	return b.messages
}

// Take returns the completed messages and forgets them.
func (b *Builder) Take() []any {
	out := b.messages
	b.messages = make([]any, 0)
	return out
}

// Depth returns the number of open composites and envelopes.
func (b *Builder) Depth() int {
	return len(b.frames)
}

// Reset drops partial state and both tables, keeping completed messages.
func (b *Builder) Reset() {
	b.frames = b.frames[:0]
	b.refs = b.refs[:0]
	b.defs = b.defs[:0]
}

// Emit implements Sink.
func (b *Builder) Emit(ev Event) error {
	switch ev.Type {
	case EventDefinition:
		b.defs = append(b.defs, Definition{ID: ev.ID, Type: ev.TypeName, Fields: ev.Fields})
		return nil
	case EventOpen:
		v, err := b.open(ev)
		if err != nil {
			return err
		}
		b.frames = append(b.frames, &frame{value: v})
		return nil
	case EventEnvelopeOpen:
		var v any
		switch ev.Kind {
		case KindCall:
			v = &Call{Version: versionOf(ev)}
		case KindReply:
			v = &Reply{Version: versionOf(ev)}
		default:
			v = &Remote{Type: ev.TypeName}
		}
		b.frames = append(b.frames, &frame{value: v})
		return nil
	case EventHeader:
		top, err := b.top(ev)
		if err != nil {
			return err
		}
		top.header, top.inHeader = ev.Field, true
		return nil
	case EventMethod:
		top, err := b.top(ev)
		if err != nil {
			return err
		}
		call, ok := top.value.(*Call)
		if !ok {
			return fmt.Errorf("method event outside call")
		}
		call.Method, _ = ev.Value.(string)
		return nil
	case EventScalar, EventField:
		return b.attach(b.resolve(ev))
	case EventClose, EventEnvelopeClose:
		top, err := b.top(ev)
		if err != nil {
			return err
		}
		b.frames = b.frames[:len(b.frames)-1]
		return b.attach(top.value)
	}
	return fmt.Errorf("unexpected event %s", ev.Type)
}

func versionOf(ev Event) Version {
	if ev.Version == nil {
		return Version{}
	}
	return *ev.Version
}

func (b *Builder) open(ev Event) (any, error) {
	var v any
	switch ev.Kind {
	case KindMap:
		v = &Map{ID: ev.ID, Type: ev.TypeName, Entries: make([]Entry, 0)}
	case KindList:
		v = &List{ID: ev.ID, Type: ev.TypeName, Length: ev.Length, Items: make([]any, 0)}
	case KindObject:
		if ev.DefID < 0 || ev.DefID >= len(b.defs) {
			return nil, fmt.Errorf("object refers to unknown definition #%d", ev.DefID)
		}
		def := b.defs[ev.DefID]
		v = &Object{ID: ev.ID, Def: def, Values: make([]any, 0, len(def.Fields))}
	case KindFault:
		v = &Fault{ID: ev.ID, Entries: make([]Entry, 0)}
	case KindRemote:
		return &Remote{Type: ev.TypeName}, nil
	default:
		return nil, fmt.Errorf("unexpected open of %s", ev.Kind)
	}
	for len(b.refs) <= ev.ID {
		b.refs = append(b.refs, nil)
	}
	b.refs[ev.ID] = v
	return v, nil
}

// resolve returns the value of a scalar or field event with refs replaced
// by the composite they point at.
func (b *Builder) resolve(ev Event) any {
	if ev.Kind != KindRef {
		return ev.Value
	}
	if ev.ID >= 0 && ev.ID < len(b.refs) && b.refs[ev.ID] != nil {
		return b.refs[ev.ID]
	}
	return ev.Value
}

func (b *Builder) top(ev Event) (*frame, error) {
	if len(b.frames) == 0 {
		return nil, fmt.Errorf("%s event with nothing open", ev.Type)
	}
	return b.frames[len(b.frames)-1], nil
}

// attach adds a completed value to the innermost open composite, or
// records it as a finished message.
func (b *Builder) attach(v any) error {
	if len(b.frames) == 0 {
		b.messages = append(b.messages, v)
		if b.scope == ScopeMessage {
			b.refs = b.refs[:0]
			b.defs = b.defs[:0]
		}
		return nil
	}
	top := b.frames[len(b.frames)-1]
	switch p := top.value.(type) {
	case *Map:
		p.Entries = top.entry(p.Entries, v)
	case *Fault:
		p.Entries = top.entry(p.Entries, v)
	case *List:
		p.Items = append(p.Items, v)
	case *Object:
		p.Values = append(p.Values, v)
	case *Remote:
		p.Value = v
	case *Call:
		if top.inHeader {
			p.Headers = append(p.Headers, Header{Name: top.header, Value: v})
			top.inHeader = false
		} else {
			p.Args = append(p.Args, v)
		}
	case *Reply:
		switch {
		case top.inHeader:
			p.Headers = append(p.Headers, Header{Name: top.header, Value: v})
			top.inHeader = false
		default:
			if f, ok := v.(*Fault); ok {
				p.Fault = f
			} else {
				p.Value = v
			}
		}
	}
	return nil
}

func (f *frame) entry(entries []Entry, v any) []Entry {
	if !f.hasKey {
		f.key, f.hasKey = v, true
		return entries
	}
	f.hasKey = false
	return append(entries, Entry{Key: f.key, Value: v})
}
