package hessian

// Tag bytes of the wire grammar. Multi-byte fields are big-endian.
const (
	// Scalars
	TagNull   byte = 'N' // 0x4e
	TagTrue   byte = 'T' // 0x54
	TagFalse  byte = 'F' // 0x46
	TagInt    byte = 'I' // 0x49 - 4 bytes
	TagLong   byte = 'L' // 0x4c - 8 bytes
	TagDate   byte = 'd' // 0x64 - 8 bytes, epoch milliseconds
	TagDouble byte = 'D' // 0x44 - 8 bytes, IEEE-754 bits
	TagRef    byte = 'R' // 0x52 - 4 bytes, back-reference id

	// Compact long and double forms
	TagLongInt     byte = 'w'  // 0x77 - 4 bytes, int32 widened to long
	TagDoubleZero  byte = 0x67 // 0.0
	TagDoubleOne   byte = 0x68 // 1.0
	TagDoubleByte  byte = 0x69 // 1 byte, int8
	TagDoubleShort byte = 0x6a // 2 bytes, int16
	TagDoubleFloat byte = 0x6b // 4 bytes, float32 bits

	// Chunked scalars; upper case marks the final chunk
	TagString      byte = 'S' // 0x53
	TagStringChunk byte = 's' // 0x73
	TagXML         byte = 'X' // 0x58
	TagXMLChunk    byte = 'x' // 0x78
	TagBinary      byte = 'B' // 0x42
	TagBinaryChunk byte = 'b' // 0x62
	TagType        byte = 't' // 0x74 - type name, single chunk

	// Composites
	TagMap        byte = 'M' // 0x4d
	TagList       byte = 'V' // 0x56
	TagLength     byte = 'l' // 0x6c - 4 bytes, advisory list length
	TagDefinition byte = 'O' // 0x4f
	TagObject     byte = 'o' // 0x6f
	TagRemote     byte = 'r' // 0x72
	TagEnd        byte = 'z' // 0x7a

	// Envelopes
	TagCall   byte = 'c' // 0x63
	TagReply  byte = 'r' // 0x72 - same byte as TagRemote; position decides
	TagHeader byte = 'H' // 0x48
	TagMethod byte = 'm' // 0x6d
	TagFault  byte = 'f' // 0x66
)

// Tag ranges with the value embedded in the tag byte.
const (
	shortStringMin byte = 0x00 // length 0..31
	shortStringMax byte = 0x1f
	shortBinaryMin byte = 0x20 // length 0..15
	shortBinaryMax byte = 0x2f

	longShortMin  byte = 0x38 // + 2 bytes
	longShortMax  byte = 0x3f
	longShortZero      = 0x3c

	intDirectMin  byte = 0x80 // value = tag - 0x90
	intDirectMax  byte = 0xbf
	intDirectZero      = 0x90
	intByteMin    byte = 0xc0 // + 1 byte
	intByteMax    byte = 0xcf
	intByteZero        = 0xc8
	intShortMin   byte = 0xd0 // + 2 bytes
	intShortMax   byte = 0xd7
	intShortZero       = 0xd4

	longDirectMin  byte = 0xd8 // value = tag - 0xe0
	longDirectMax  byte = 0xef
	longDirectZero      = 0xe0
	longByteMin    byte = 0xf0 // + 1 byte
	longByteMax    byte = 0xff
	longByteZero        = 0xf8
)

// Limits of the compact integer ranges.
const (
	IntDirectMin = -16
	IntDirectMax = 47
	IntByteMin   = -2048
	IntByteMax   = 2047
	IntShortMin  = -262144
	IntShortMax  = 262143
)

// MaxChunkLength is the largest length a 2-byte chunk header can declare.
const MaxChunkLength = 0xffff

func isIntTag(b byte) bool {
	return b == TagInt || (b >= intDirectMin && b <= intShortMax)
}

func isStringTag(b byte) bool {
	return b <= shortStringMax || b == TagString || b == TagStringChunk
}
