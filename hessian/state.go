package hessian

// state is one grammar production in progress.
//
// next consumes the byte following the production's own tag. child resumes
// the state after a production it pushed (or delivered) completes; the
// parent decides which event, if any, the completed value produces.
type state interface {
	name() string
	next(d *Decoder, b byte) error
	child(d *Decoder, r result) error
}

// result is a completed production handed to its parent.
type result struct {
	kind  Kind
	value any
	// id is the ref id of a composite, or the target of a ref.
	id int
}

// scalar returns true for values reported as scalar or field events.
func (r result) scalar() bool {
	switch r.kind {
	case KindMap, KindList, KindObject, KindRemote, KindFault, KindCall, KindReply:
		return false
	default:
		return true
	}
}

// leaf is embedded by states that never push children.
type leaf struct{}

func (leaf) child(*Decoder, result) error {
	panic("hessian: leaf state resumed by a child")
}

func scalarResult(kind Kind, v any) result {
	return result{kind: kind, value: v, id: NoID}
}

// beginValue dispatches the first byte of a value in a value position.
// Scalars without follow bytes are delivered to the current state at once.
// An object definition is accepted wherever a value is; it resumes the
// current state without a value.
func (d *Decoder) beginValue(b byte) error {
	switch {
	case b == TagNull:
		return d.deliver(scalarResult(KindNull, nil))
	case b == TagTrue:
		return d.deliver(scalarResult(KindBool, true))
	case b == TagFalse:
		return d.deliver(scalarResult(KindBool, false))

	case b >= intDirectMin && b <= intDirectMax:
		return d.deliver(scalarResult(KindInt, int32(int(b)-intDirectZero)))
	case b >= intByteMin && b <= intByteMax:
		return d.push(newBiasedState(KindInt, b, intByteZero, 1))
	case b >= intShortMin && b <= intShortMax:
		return d.push(newBiasedState(KindInt, b, intShortZero, 2))
	case b == TagInt:
		return d.push(newFixedState(KindInt, 4, toInt32))

	case b >= longDirectMin && b <= longDirectMax:
		return d.deliver(scalarResult(KindLong, int64(int(b)-longDirectZero)))
	case b >= longByteMin:
		return d.push(newBiasedState(KindLong, b, longByteZero, 1))
	case b >= longShortMin && b <= longShortMax:
		return d.push(newBiasedState(KindLong, b, longShortZero, 2))
	case b == TagLongInt:
		return d.push(newFixedState(KindLong, 4, toLongFromInt32))
	case b == TagLong:
		return d.push(newFixedState(KindLong, 8, toInt64))

	case b == TagDoubleZero:
		return d.deliver(scalarResult(KindDouble, float64(0)))
	case b == TagDoubleOne:
		return d.deliver(scalarResult(KindDouble, float64(1)))
	case b == TagDoubleByte:
		return d.push(newFixedState(KindDouble, 1, toDoubleFromInt8))
	case b == TagDoubleShort:
		return d.push(newFixedState(KindDouble, 2, toDoubleFromInt16))
	case b == TagDoubleFloat:
		return d.push(newFixedState(KindDouble, 4, toDoubleFromFloat32))
	case b == TagDouble:
		return d.push(newFixedState(KindDouble, 8, toFloat64))
	case b == TagDate:
		return d.push(newFixedState(KindDate, 8, toDate))
	case b == TagRef:
		return d.push(newFixedState(KindRef, 4, toRef))

	case b <= shortStringMax:
		return d.beginShortString(KindString, int(b-shortStringMin))
	case b == TagString || b == TagStringChunk:
		return d.push(newStringState(KindString, b == TagString))
	case b == TagXML || b == TagXMLChunk:
		return d.push(newStringState(KindXML, b == TagXML))
	case b >= shortBinaryMin && b <= shortBinaryMax:
		return d.beginShortBinary(int(b - shortBinaryMin))
	case b == TagBinary || b == TagBinaryChunk:
		return d.push(newBinaryState(b == TagBinary))

	case b == TagMap:
		return d.push(newMapState(KindMap, d.field))
	case b == TagList:
		return d.push(newListState(d.field))
	case b == TagObject:
		return d.push(newObjectState(d.field))
	case b == TagRemote:
		return d.push(newRemoteState(d.field, false))
	case b == TagDefinition:
		return d.push(&objectDefState{})
	}
	return d.unknownTag(b)
}

// beginInt accepts only the integer tags; used for counts and indexes.
func (d *Decoder) beginInt(b byte) error {
	if !isIntTag(b) {
		return d.errorf(ErrorUnknownTag, b, "expected integer")
	}
	return d.beginValue(b)
}

// beginString accepts only the string tags; used for names.
func (d *Decoder) beginString(b byte) error {
	if !isStringTag(b) {
		return d.errorf(ErrorUnknownTag, b, "expected string")
	}
	return d.beginValue(b)
}
