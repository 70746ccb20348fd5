package hessian

// initialState sits at the bottom of the stack between messages.
type initialState struct{}

func (s *initialState) name() string {
	return "initial"
}

func (s *initialState) next(d *Decoder, b byte) error {
	switch b {
	case TagCall:
		return d.push(&callState{})
	case TagReply:
		return d.push(&replyState{})
	}
	return d.beginValue(b)
}

func (s *initialState) child(d *Decoder, r result) error {
	if err := d.emitValue(r); err != nil {
		return err
	}
	d.endMessage()
	return nil
}

type envelopePhase int

const (
	envMajor envelopePhase = iota
	envMinor
	envHead
	envHeaderKey
	envHeaderValue
	envMethod
	envBody
	envFault
)

// callState decodes `c major minor ('H' key value)* 'm' method value* z`.
// Only 'H' headers may precede the method: a bare value in that position,
// which the looser `(H key value | value)*` form would accept, fails as
// unknown_tag.
type callState struct {
	phase   envelopePhase
	version Version
}

func (s *callState) name() string {
	return string(KindCall)
}

func (s *callState) next(d *Decoder, b byte) error {
	switch s.phase {
	case envMajor:
		s.version.Major = int(b)
		s.phase = envMinor
		return nil
	case envMinor:
		s.version.Minor = int(b)
		s.phase = envHead
		ev := newEvent(EventEnvelopeOpen, KindCall)
		v := s.version
		ev.Version = &v
		return d.emit(ev)
	case envHead:
		switch b {
		case TagHeader:
			s.phase = envHeaderKey
		case TagMethod:
			s.phase = envMethod
		default:
			return d.errorf(ErrorUnknownTag, b, "expected header or method")
		}
		return nil
	case envHeaderKey, envMethod:
		return d.beginString(b)
	case envHeaderValue:
		return d.beginValue(b)
	}
	if b == TagEnd {
		if err := d.emit(newEvent(EventEnvelopeClose, KindCall)); err != nil {
			return err
		}
		return d.finish(result{kind: KindCall, id: NoID})
	}
	return d.beginValue(b)
}

func (s *callState) child(d *Decoder, r result) error {
	switch s.phase {
	case envHeaderKey:
		s.phase = envHeaderValue
		ev := newEvent(EventHeader, KindString)
		ev.Field = r.value.(string)
		return d.emit(ev)
	case envHeaderValue:
		s.phase = envHead
	case envMethod:
		s.phase = envBody
		ev := newEvent(EventMethod, KindString)
		ev.Value = r.value
		return d.emit(ev)
	}
	return d.emitValue(r)
}

// replyState decodes `r major minor ('H' key value)* ('f' fault z | value)`.
// A top-level 'r' followed by 't' is a remote envelope instead.
type replyState struct {
	phase   envelopePhase
	version Version
}

func (s *replyState) name() string {
	return string(KindReply)
}

func (s *replyState) next(d *Decoder, b byte) error {
	switch s.phase {
	case envMajor:
		if b == TagType {
			rs := newRemoteState("", true)
			rs.phase = remoteTyping
			d.cur = rs
			return d.push(newTypeState())
		}
		s.version.Major = int(b)
		s.phase = envMinor
		return nil
	case envMinor:
		s.version.Minor = int(b)
		s.phase = envHead
		ev := newEvent(EventEnvelopeOpen, KindReply)
		v := s.version
		ev.Version = &v
		return d.emit(ev)
	case envHeaderKey:
		return d.beginString(b)
	case envHeaderValue:
		return d.beginValue(b)
	case envHead:
		switch b {
		case TagHeader:
			s.phase = envHeaderKey
			return nil
		case TagFault:
			s.phase = envFault
			fault := newMapState(KindFault, "")
			if err := d.push(fault); err != nil {
				return err
			}
			return fault.open(d)
		}
	}
	s.phase = envBody
	if b == TagRemote {
		return d.push(newRemoteState("", true))
	}
	return d.beginValue(b)
}

func (s *replyState) child(d *Decoder, r result) error {
	switch s.phase {
	case envHeaderKey:
		s.phase = envHeaderValue
		ev := newEvent(EventHeader, KindString)
		ev.Field = r.value.(string)
		return d.emit(ev)
	case envHeaderValue:
		s.phase = envHead
		return d.emitValue(r)
	}
	if err := d.emitValue(r); err != nil {
		return err
	}
	if err := d.emit(newEvent(EventEnvelopeClose, KindReply)); err != nil {
		return err
	}
	return d.finish(result{kind: KindReply, id: NoID})
}
