package hessian

import (
	"encoding/binary"
	"math"
	"time"
	"unicode/utf16"
)

// Fixture encoder. Mirrors the grammar closely enough to build test input.

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func raw(b ...byte) []byte {
	return b
}

func be16(n int) []byte {
	return []byte{byte(n >> 8), byte(n)}
}

func be32(n uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, n)
}

func be64(n uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, n)
}

// encInt picks the most compact integer form.
func encInt(v int32) []byte {
	switch {
	case v >= IntDirectMin && v <= IntDirectMax:
		return raw(byte(v + intDirectZero))
	case v >= IntByteMin && v <= IntByteMax:
		return raw(byte(intByteZero+(v>>8)), byte(v))
	case v >= IntShortMin && v <= IntShortMax:
		return raw(byte(intShortZero+(v>>16)), byte(v>>8), byte(v))
	}
	return cat(raw(TagInt), be32(uint32(v)))
}

func encLong(v int64) []byte {
	switch {
	case v >= -8 && v <= 15:
		return raw(byte(v + longDirectZero))
	case v >= -2048 && v <= 2047:
		return raw(byte(longByteZero+(v>>8)), byte(v))
	case v >= -262144 && v <= 262143:
		return raw(byte(longShortZero+(v>>16)), byte(v>>8), byte(v))
	case v >= math.MinInt32 && v <= math.MaxInt32:
		return cat(raw(TagLongInt), be32(uint32(int32(v))))
	}
	return cat(raw(TagLong), be64(uint64(v)))
}

func encDouble(v float64) []byte {
	return cat(raw(TagDouble), be64(math.Float64bits(v)))
}

func encDate(t time.Time) []byte {
	return cat(raw(TagDate), be64(uint64(t.UnixMilli())))
}

func encRef(id int) []byte {
	return cat(raw(TagRef), be32(uint32(id)))
}

func units(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// encString uses the short form when it fits, otherwise one final chunk.
func encString(s string) []byte {
	n := units(s)
	if n <= int(shortStringMax) {
		return cat(raw(byte(n)), []byte(s))
	}
	return cat(raw(TagString), be16(n), []byte(s))
}

// encChunks splits s into chunks of at most size characters.
func encChunks(chunk, final byte, s string, size int) []byte {
	runes := []rune(s)
	var out []byte
	for {
		var part []rune
		n := 0
		for len(runes) > 0 {
			w := len(utf16.Encode(runes[:1]))
			if n+w > size {
				break
			}
			part = append(part, runes[0])
			runes = runes[1:]
			n += w
		}
		tag := chunk
		if len(runes) == 0 {
			tag = final
		}
		out = cat(out, raw(tag), be16(n), []byte(string(part)))
		if len(runes) == 0 {
			return out
		}
	}
}

func encType(name string) []byte {
	return cat(raw(TagType), be16(units(name)), []byte(name))
}

func encBinary(b []byte) []byte {
	if len(b) <= int(shortBinaryMax-shortBinaryMin) {
		return cat(raw(shortBinaryMin+byte(len(b))), b)
	}
	return cat(raw(TagBinary), be16(len(b)), b)
}

func encMap(typeName string, kv ...[]byte) []byte {
	out := raw(TagMap)
	if typeName != "" {
		out = cat(out, encType(typeName))
	}
	return cat(out, cat(kv...), raw(TagEnd))
}

func encList(typeName string, length int, items ...[]byte) []byte {
	out := raw(TagList)
	if typeName != "" {
		out = cat(out, encType(typeName))
	}
	if length >= 0 {
		out = cat(out, raw(TagLength), be32(uint32(length)))
	}
	return cat(out, cat(items...), raw(TagEnd))
}

func encDef(typeName string, fields ...string) []byte {
	out := cat(raw(TagDefinition), encInt(int32(len(fields))), encString(typeName))
	for _, f := range fields {
		out = cat(out, encString(f))
	}
	return out
}

func encObject(def int, values ...[]byte) []byte {
	return cat(raw(TagObject), encInt(int32(def)), cat(values...))
}

func encCall(method string, headers [][2][]byte, args ...[]byte) []byte {
	out := raw(TagCall, 2, 0)
	for _, h := range headers {
		out = cat(out, raw(TagHeader), h[0], h[1])
	}
	return cat(out, raw(TagMethod), encString(method), cat(args...), raw(TagEnd))
}

func encReply(headers [][2][]byte, body []byte) []byte {
	out := raw(TagReply, 2, 0)
	for _, h := range headers {
		out = cat(out, raw(TagHeader), h[0], h[1])
	}
	return cat(out, body)
}

func encFault(kv ...[]byte) []byte {
	return cat(raw(TagFault), cat(kv...), raw(TagEnd))
}
