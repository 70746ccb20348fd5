package hessian

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// chunkPhase tracks position inside a chunked scalar.
type chunkPhase int

const (
	chunkLenHigh chunkPhase = iota
	chunkLenLow
	chunkData
	chunkNext // awaiting the next chunk tag
)

// stringState decodes String, XML and type-name productions. Chunk lengths
// count UTF-16 code units, so a 4-byte UTF-8 sequence consumes two.
type stringState struct {
	leaf
	kind      Kind
	label     string
	chunkTag  byte // 0 when only a single chunk is allowed
	finalTag  byte
	final     bool
	phase     chunkPhase
	remaining int
	buf       strings.Builder

	// UTF-8 sequence in progress
	pending int
	cp      rune
	units   int
	// high surrogate awaiting its pair
	high rune
}

func newStringState(kind Kind, final bool) *stringState {
	s := &stringState{kind: kind, final: final, label: string(kind)}
	if kind == KindXML {
		s.chunkTag, s.finalTag = TagXMLChunk, TagXML
	} else {
		s.chunkTag, s.finalTag = TagStringChunk, TagString
	}
	return s
}

// newTypeState decodes the type name that follows a 't' tag.
func newTypeState() *stringState {
	return &stringState{kind: KindString, label: "type", final: true}
}

// beginShortString handles 0x00-0x1f: a single final chunk of n characters.
func (d *Decoder) beginShortString(kind Kind, n int) error {
	if n == 0 {
		return d.deliver(scalarResult(kind, ""))
	}
	s := newStringState(kind, true)
	s.remaining = n
	s.phase = chunkData
	return d.push(s)
}

func (s *stringState) name() string {
	return s.label
}

func (s *stringState) next(d *Decoder, b byte) error {
	switch s.phase {
	case chunkLenHigh:
		s.remaining = int(b) << 8
		s.phase = chunkLenLow
		return nil
	case chunkLenLow:
		s.remaining |= int(b)
		if s.remaining > 0 {
			s.phase = chunkData
			return nil
		}
		return s.endChunk(d)
	case chunkNext:
		switch {
		case s.chunkTag != 0 && b == s.chunkTag:
			s.final = false
		case s.finalTag != 0 && b == s.finalTag:
			s.final = true
		default:
			return d.errorf(ErrorUnknownTag, b, "expected %s chunk", s.label)
		}
		s.phase = chunkLenHigh
		return nil
	}
	return s.data(d, b)
}

func (s *stringState) data(d *Decoder, b byte) error {
	if s.pending > 0 {
		if b&0xc0 != 0x80 {
			return d.errorf(ErrorLengthMismatch, b, "character truncated")
		}
		s.cp = s.cp<<6 | rune(b&0x3f)
		s.pending--
		if s.pending > 0 {
			return nil
		}
		return s.char(d, s.cp, s.units)
	}
	switch {
	case b < 0x80:
		return s.char(d, rune(b), 1)
	case b&0xe0 == 0xc0:
		s.cp, s.pending, s.units = rune(b&0x1f), 1, 1
	case b&0xf0 == 0xe0:
		s.cp, s.pending, s.units = rune(b&0x0f), 2, 1
	case b&0xf8 == 0xf0:
		if s.remaining < 2 {
			return d.errorf(ErrorLengthMismatch, b, "supplementary character exceeds chunk length")
		}
		s.cp, s.pending, s.units = rune(b&0x07), 3, 2
	default:
		return d.errorf(ErrorMalformedText, b, "invalid UTF-8 lead byte")
	}
	return nil
}

// char appends one decoded character worth units UTF-16 code units.
func (s *stringState) char(d *Decoder, r rune, units int) error {
	switch {
	case utf16.IsSurrogate(r) && r < 0xdc00:
		if s.high != 0 {
			s.buf.WriteRune(utf8.RuneError)
		}
		s.high = r
	case utf16.IsSurrogate(r):
		if s.high != 0 {
			s.buf.WriteRune(utf16.DecodeRune(s.high, r))
			s.high = 0
		} else {
			s.buf.WriteRune(utf8.RuneError)
		}
	default:
		s.flushSurrogate()
		s.buf.WriteRune(r)
	}
	s.remaining -= units
	if s.remaining > 0 {
		return nil
	}
	return s.endChunk(d)
}

func (s *stringState) flushSurrogate() {
	if s.high != 0 {
		s.buf.WriteRune(utf8.RuneError)
		s.high = 0
	}
}

func (s *stringState) endChunk(d *Decoder) error {
	if !s.final {
		s.phase = chunkNext
		return nil
	}
	s.flushSurrogate()
	if s.kind == KindXML {
		return d.finish(scalarResult(KindXML, XML(s.buf.String())))
	}
	return d.finish(scalarResult(KindString, s.buf.String()))
}

// binaryState decodes Binary productions; chunk lengths count bytes.
type binaryState struct {
	leaf
	final     bool
	phase     chunkPhase
	remaining int
	buf       []byte
}

func newBinaryState(final bool) *binaryState {
	return &binaryState{final: final, buf: make([]byte, 0)}
}

// beginShortBinary handles 0x20-0x2f: a single final chunk of n bytes.
func (d *Decoder) beginShortBinary(n int) error {
	if n == 0 {
		return d.deliver(scalarResult(KindBinary, []byte{}))
	}
	s := newBinaryState(true)
	s.remaining = n
	s.phase = chunkData
	s.buf = make([]byte, 0, n)
	return d.push(s)
}

func (s *binaryState) name() string {
	return string(KindBinary)
}

func (s *binaryState) next(d *Decoder, b byte) error {
	switch s.phase {
	case chunkLenHigh:
		s.remaining = int(b) << 8
		s.phase = chunkLenLow
		return nil
	case chunkLenLow:
		s.remaining |= int(b)
		if s.remaining > 0 {
			s.phase = chunkData
			return nil
		}
		return s.endChunk(d)
	case chunkNext:
		switch b {
		case TagBinaryChunk:
			s.final = false
		case TagBinary:
			s.final = true
		default:
			return d.errorf(ErrorUnknownTag, b, "expected binary chunk")
		}
		s.phase = chunkLenHigh
		return nil
	}
	s.buf = append(s.buf, b)
	s.remaining--
	if s.remaining > 0 {
		return nil
	}
	return s.endChunk(d)
}

func (s *binaryState) endChunk(d *Decoder) error {
	if !s.final {
		s.phase = chunkNext
		return nil
	}
	return d.finish(scalarResult(KindBinary, s.buf))
}
