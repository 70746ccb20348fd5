package hessian

import (
	"errors"
	"fmt"
)

// ErrorKind classifies decode errors.
type ErrorKind int

const (
	// ErrorUnknownTag indicates a byte outside the current state's expected tag set.
	ErrorUnknownTag ErrorKind = iota
	// ErrorBadRef indicates a back-reference id at or beyond the table length.
	ErrorBadRef
	// ErrorUnknownDefinition indicates an object instance citing an unregistered definition.
	ErrorUnknownDefinition
	// ErrorTruncated indicates end of input inside a production.
	ErrorTruncated
	// ErrorLengthMismatch indicates a declared count not satisfied by the bytes seen.
	ErrorLengthMismatch
	// ErrorMalformedText indicates an invalid UTF-8 lead byte inside a string chunk.
	ErrorMalformedText
	// ErrorDepthExceeded indicates nesting beyond the configured maximum depth.
	ErrorDepthExceeded
	// ErrorSink indicates the sink rejected an event.
	ErrorSink
	// ErrorClosed indicates input after Close.
	ErrorClosed
)

var errorKindNames = map[ErrorKind]string{
	ErrorUnknownTag:        "unknown_tag",
	ErrorBadRef:            "bad_ref",
	ErrorUnknownDefinition: "unknown_definition",
	ErrorTruncated:         "truncated",
	ErrorLengthMismatch:    "length_mismatch",
	ErrorMalformedText:     "malformed_text",
	ErrorDepthExceeded:     "depth_exceeded",
	ErrorSink:              "sink",
	ErrorClosed:            "closed",
}

// String returns the snake_case name used in logs and metrics.
func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("error_kind(%d)", int(k))
}

// DecodeError reports a fatal decode failure.
// The decoder does not resynchronize; the in-progress message is lost.
type DecodeError struct {
	Kind ErrorKind
	// Offset is the zero-based position of the offending byte
	// (the stream length for ErrorTruncated).
	Offset int64
	// State names the production being decoded.
	State string
	// Byte is the offending byte, when there is one.
	Byte    byte
	HasByte bool
	Msg     string
	Err     error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("hessian: %s at offset %d", e.Msg, e.Offset)
	if e.HasByte {
		msg += fmt.Sprintf(" (byte 0x%02x", e.Byte)
		if e.State != "" {
			msg += " in " + e.State
		}
		msg += ")"
	} else if e.State != "" {
		msg += " (in " + e.State + ")"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsTruncated returns true if err reports incomplete input. Callers in
// streaming mode may retry with more bytes on a fresh decoder.
func IsTruncated(err error) bool {
	var decErr *DecodeError
	if errors.As(err, &decErr) {
		return decErr.Kind == ErrorTruncated
	}
	return false
}

// IsCorrupt returns true if err reports bytes that can never decode,
// as opposed to missing bytes or a sink failure.
func IsCorrupt(err error) bool {
	var decErr *DecodeError
	if errors.As(err, &decErr) {
		switch decErr.Kind {
		case ErrorTruncated, ErrorSink, ErrorClosed:
			return false
		default:
			return true
		}
	}
	return false
}

// KindOf returns the ErrorKind of err and whether err is a DecodeError.
func KindOf(err error) (ErrorKind, bool) {
	var decErr *DecodeError
	if errors.As(err, &decErr) {
		return decErr.Kind, true
	}
	return 0, false
}
