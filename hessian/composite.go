package hessian

import "fmt"

type mapPhase int

const (
	mapStart mapPhase = iota
	mapTyping
	mapKey
	mapValue
)

// mapState decodes `M ['t' type] (key value)* z`. It also decodes the fault
// body of a reply, which has no type and is opened by the reply itself.
type mapState struct {
	kind     Kind
	field    string
	phase    mapPhase
	id       int
	typeName string
}

func newMapState(kind Kind, field string) *mapState {
	return &mapState{kind: kind, field: field, id: NoID}
}

func (s *mapState) name() string {
	return string(s.kind)
}

// open allocates the ref id and reports the header.
func (s *mapState) open(d *Decoder) error {
	s.id = d.refs.alloc()
	s.phase = mapKey
	ev := newEvent(EventOpen, s.kind)
	ev.ID = s.id
	ev.TypeName = s.typeName
	ev.Field = s.field
	return d.emit(ev)
}

func (s *mapState) next(d *Decoder, b byte) error {
	switch s.phase {
	case mapStart:
		if b == TagType {
			s.phase = mapTyping
			return d.push(newTypeState())
		}
		if err := s.open(d); err != nil {
			return err
		}
		return s.key(d, b)
	case mapKey:
		return s.key(d, b)
	default:
		if b == TagEnd {
			return d.errorf(ErrorLengthMismatch, b, "map key without value")
		}
		return d.beginValue(b)
	}
}

func (s *mapState) key(d *Decoder, b byte) error {
	if b == TagEnd {
		return closeComposite(d, s.kind, s.id)
	}
	return d.beginValue(b)
}

func (s *mapState) child(d *Decoder, r result) error {
	switch s.phase {
	case mapTyping:
		s.typeName = r.value.(string)
		return s.open(d)
	case mapKey:
		s.phase = mapValue
	default:
		s.phase = mapKey
	}
	return d.emitValue(r)
}

// closeComposite reports the end of a composite and resumes its parent.
func closeComposite(d *Decoder, kind Kind, id int) error {
	ev := newEvent(EventClose, kind)
	ev.ID = id
	if err := d.emit(ev); err != nil {
		return err
	}
	return d.finish(result{kind: kind, id: id})
}

type listPhase int

const (
	listStart listPhase = iota
	listTyping
	listTyped
	listSizing
	listItems
)

// listState decodes `V ['t' type] ['l' length] value* z`. The length is
// advisory; only 'z' terminates.
type listState struct {
	field    string
	phase    listPhase
	id       int
	typeName string
	length   int
}

func newListState(field string) *listState {
	return &listState{field: field, id: NoID, length: -1}
}

func (s *listState) name() string {
	return string(KindList)
}

func (s *listState) open(d *Decoder) error {
	s.id = d.refs.alloc()
	s.phase = listItems
	ev := newEvent(EventOpen, KindList)
	ev.ID = s.id
	ev.TypeName = s.typeName
	ev.Field = s.field
	ev.Length = s.length
	return d.emit(ev)
}

func (s *listState) next(d *Decoder, b byte) error {
	switch s.phase {
	case listStart:
		if b == TagType {
			s.phase = listTyping
			return d.push(newTypeState())
		}
		fallthrough
	case listTyped:
		if b == TagLength {
			s.phase = listSizing
			return d.push(newFixedState(KindInt, 4, toLength))
		}
		if err := s.open(d); err != nil {
			return err
		}
	}
	if b == TagEnd {
		return closeComposite(d, KindList, s.id)
	}
	return d.beginValue(b)
}

func (s *listState) child(d *Decoder, r result) error {
	switch s.phase {
	case listTyping:
		s.typeName = r.value.(string)
		s.phase = listTyped
		return nil
	case listSizing:
		s.length = r.value.(int)
		return s.open(d)
	}
	return d.emitValue(r)
}

type defPhase int

const (
	defCount defPhase = iota
	defType
	defFields
)

// objectDefState decodes `O int(count) string(type) string{count}` and
// registers the definition. It produces no value.
type objectDefState struct {
	phase    defPhase
	count    int
	typeName string
	fields   []string
}

func (s *objectDefState) name() string {
	return "definition"
}

func (s *objectDefState) next(d *Decoder, b byte) error {
	if s.phase == defCount {
		return d.beginInt(b)
	}
	return d.beginString(b)
}

func (s *objectDefState) child(d *Decoder, r result) error {
	switch s.phase {
	case defCount:
		s.count = int(r.value.(int32))
		if s.count < 0 {
			return &DecodeError{
				Kind:   ErrorLengthMismatch,
				Offset: d.off,
				State:  s.name(),
				Msg:    fmt.Sprintf("negative field count %d", s.count),
			}
		}
		s.fields = make([]string, 0, s.count)
		s.phase = defType
		return nil
	case defType:
		s.typeName = r.value.(string)
		s.phase = defFields
	default:
		s.fields = append(s.fields, r.value.(string))
	}
	if len(s.fields) < s.count {
		return nil
	}
	def := d.defs.add(s.typeName, s.fields)
	ev := newEvent(EventDefinition, "")
	ev.ID = def.ID
	ev.TypeName = def.Type
	ev.Fields = def.Fields
	if err := d.emit(ev); err != nil {
		return err
	}
	d.resume()
	return nil
}

type objectPhase int

const (
	objectIndex objectPhase = iota
	objectFields
)

// objectState decodes `o int(definition) value{field count}`.
type objectState struct {
	field string
	phase objectPhase
	id    int
	def   Definition
	i     int
}

func newObjectState(field string) *objectState {
	return &objectState{field: field, id: NoID}
}

func (s *objectState) name() string {
	return string(KindObject)
}

func (s *objectState) next(d *Decoder, b byte) error {
	if s.phase == objectIndex {
		return d.beginInt(b)
	}
	if b == TagEnd {
		return d.errorf(ErrorLengthMismatch, b, "object %s ended after %d of %d fields", s.def.Type, s.i, len(s.def.Fields))
	}
	d.field = s.def.Fields[s.i]
	err := d.beginValue(b)
	d.field = ""
	return err
}

func (s *objectState) child(d *Decoder, r result) error {
	if s.phase == objectIndex {
		idx := int(r.value.(int32))
		def, ok := d.defs.get(idx)
		if !ok {
			return &DecodeError{
				Kind:   ErrorUnknownDefinition,
				Offset: d.off,
				State:  s.name(),
				Msg:    fmt.Sprintf("definition #%d not registered (%d known)", idx, d.defs.len()),
			}
		}
		s.def = def
		s.id = d.refs.alloc()
		s.phase = objectFields
		ev := newEvent(EventOpen, KindObject)
		ev.ID = s.id
		ev.DefID = def.ID
		ev.TypeName = def.Type
		ev.Field = s.field
		if err := d.emit(ev); err != nil {
			return err
		}
		if len(def.Fields) == 0 {
			return closeComposite(d, KindObject, s.id)
		}
		return nil
	}

	if r.scalar() {
		ev := newEvent(EventField, r.kind)
		ev.Field = s.def.Fields[s.i]
		ev.Value = r.value
		if r.kind == KindRef {
			ev.ID = r.id
		}
		if err := d.emit(ev); err != nil {
			return err
		}
	}
	s.i++
	if s.i < len(s.def.Fields) {
		return nil
	}
	return closeComposite(d, KindObject, s.id)
}

type remotePhase int

const (
	remoteStart remotePhase = iota
	remoteTyping
	remoteValue
)

// remoteState decodes `r ['t' type] value`, either as a value (open/close
// events, no ref id) or as an envelope.
type remoteState struct {
	field    string
	envelope bool
	phase    remotePhase
	typeName string
}

func newRemoteState(field string, envelope bool) *remoteState {
	return &remoteState{field: field, envelope: envelope}
}

func (s *remoteState) name() string {
	return string(KindRemote)
}

func (s *remoteState) open(d *Decoder) error {
	s.phase = remoteValue
	var ev Event
	if s.envelope {
		ev = newEvent(EventEnvelopeOpen, KindRemote)
	} else {
		ev = newEvent(EventOpen, KindRemote)
		ev.Field = s.field
	}
	ev.TypeName = s.typeName
	return d.emit(ev)
}

func (s *remoteState) next(d *Decoder, b byte) error {
	if s.phase == remoteStart {
		if b == TagType {
			s.phase = remoteTyping
			return d.push(newTypeState())
		}
		if err := s.open(d); err != nil {
			return err
		}
	}
	return d.beginValue(b)
}

func (s *remoteState) child(d *Decoder, r result) error {
	if s.phase == remoteTyping {
		s.typeName = r.value.(string)
		return s.open(d)
	}
	if err := d.emitValue(r); err != nil {
		return err
	}
	if s.envelope {
		if err := d.emit(newEvent(EventEnvelopeClose, KindRemote)); err != nil {
			return err
		}
	} else if err := d.emit(newEvent(EventClose, KindRemote)); err != nil {
		return err
	}
	return d.finish(result{kind: KindRemote, id: NoID})
}
