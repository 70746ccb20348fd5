package hessian

import (
	"math"
	"time"
)

// fixedState accumulates a fixed number of big-endian follow bytes:
// acc = acc*256 + b. Biased compact forms seed acc with the tag byte and
// subtract the bias once every follow byte has arrived.
type fixedState struct {
	leaf
	kind    Kind
	width   int
	got     int
	acc     uint64
	bias    int64
	convert func(acc uint64) any
}

func newFixedState(kind Kind, width int, convert func(uint64) any) *fixedState {
	return &fixedState{kind: kind, width: width, convert: convert}
}

// newBiasedState decodes the compact forms whose high bits live in the
// tag byte: value = ((tag-zero) << 8*width) + follow bytes.
func newBiasedState(kind Kind, tag byte, zero int, width int) *fixedState {
	s := &fixedState{kind: kind, width: width, acc: uint64(tag)}
	s.bias = int64(zero) << (8 * width)
	if kind == KindInt {
		s.convert = func(acc uint64) any { return int32(int64(acc) - s.bias) }
	} else {
		s.convert = func(acc uint64) any { return int64(acc) - s.bias }
	}
	return s
}

func (s *fixedState) name() string {
	return string(s.kind)
}

func (s *fixedState) next(d *Decoder, b byte) error {
	s.acc = s.acc<<8 | uint64(b)
	s.got++
	if s.got < s.width {
		return nil
	}
	v := s.convert(s.acc)
	if s.kind == KindRef {
		id := int(v.(Ref))
		if !d.refs.has(id) {
			return d.errorf(ErrorBadRef, b, "ref #%d beyond table length %d", id, d.refs.len())
		}
		return d.finish(result{kind: KindRef, value: v, id: id})
	}
	return d.finish(scalarResult(s.kind, v))
}

func toInt32(acc uint64) any {
	return int32(uint32(acc))
}

func toInt64(acc uint64) any {
	return int64(acc)
}

func toLongFromInt32(acc uint64) any {
	return int64(int32(uint32(acc)))
}

func toFloat64(acc uint64) any {
	return math.Float64frombits(acc)
}

func toDoubleFromInt8(acc uint64) any {
	return float64(int8(uint8(acc)))
}

func toDoubleFromInt16(acc uint64) any {
	return float64(int16(uint16(acc)))
}

func toDoubleFromFloat32(acc uint64) any {
	return float64(math.Float32frombits(uint32(acc)))
}

func toDate(acc uint64) any {
	return time.UnixMilli(int64(acc)).UTC()
}

func toRef(acc uint64) any {
	return Ref(uint32(acc))
}

// toLength reads the advisory list length.
func toLength(acc uint64) any {
	return int(int32(uint32(acc)))
}
