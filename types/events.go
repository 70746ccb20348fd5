package types

import (
	"time"

	"github.com/justapithecus/hessian/hessian"
)

// RecordVersion is the event record format version.
const RecordVersion = "0.1.0"

// EventRecord is one decoder event with session metadata attached.
// All fields carry msgpack tags (capture frames) and json tags (storage).
type EventRecord struct {
	// RecordVersion is the semantic version of the record format.
	RecordVersion string `msgpack:"record_version" json:"record_version"`
	// SessionID identifies the decode session.
	SessionID string `msgpack:"session_id" json:"session_id"`
	// Source is a caller-defined label for the byte stream.
	Source string `msgpack:"source" json:"source"`
	// Seq is the monotonic sequence number, starts at 1.
	Seq int64 `msgpack:"seq" json:"seq"`
	// Message is the zero-based index of the top-level message.
	Message int64 `msgpack:"message" json:"message"`
	// Ts is the record timestamp in RFC 3339 UTC format.
	Ts string `msgpack:"ts" json:"ts"`
	// Type is the decoder event type.
	Type hessian.EventType `msgpack:"type" json:"type"`
	// Kind is the value kind.
	Kind hessian.Kind `msgpack:"kind,omitempty" json:"kind,omitempty"`
	// ID is the ref or definition id, or -1.
	ID int `msgpack:"id" json:"id"`
	// DefID is the definition of an opened object, or -1.
	DefID int `msgpack:"def_id" json:"def_id"`
	// TypeName is the composite or definition type name.
	TypeName string `msgpack:"type_name,omitempty" json:"type_name,omitempty"`
	// Field is the object field or header name.
	Field string `msgpack:"field,omitempty" json:"field,omitempty"`
	// Value is the scalar value in plain form.
	Value any `msgpack:"value,omitempty" json:"value,omitempty"`
	// Length is the declared length of an opened list; nil when the list
	// carried none.
	Length *int `msgpack:"length,omitempty" json:"length,omitempty"`
	// Version is the envelope version ("2.0").
	Version string `msgpack:"version,omitempty" json:"version,omitempty"`
	// Fields are the field names of a definition.
	Fields []string `msgpack:"fields,omitempty" json:"fields,omitempty"`
	// Offset is the stream position of the byte that produced the event.
	Offset int64 `msgpack:"offset" json:"offset"`
}

// NewEventRecord converts a decoder event.
func NewEventRecord(meta *SessionMeta, seq, message int64, ev hessian.Event, ts time.Time) *EventRecord {
	rec := &EventRecord{
		RecordVersion: RecordVersion,
		SessionID:     meta.SessionID,
		Source:        meta.Source,
		Seq:           seq,
		Message:       message,
		Ts:            ts.UTC().Format(time.RFC3339Nano),
		Type:          ev.Type,
		Kind:          ev.Kind,
		ID:            ev.ID,
		DefID:         ev.DefID,
		TypeName:      ev.TypeName,
		Field:         ev.Field,
		Value:         hessian.Plain(ev.Value),
		Fields:        ev.Fields,
		Offset:        ev.Offset,
	}
	if ev.Type == hessian.EventOpen && ev.Kind == hessian.KindList && ev.Length >= 0 {
		n := ev.Length
		rec.Length = &n
	}
	if ev.Version != nil {
		rec.Version = ev.Version.String()
	}
	return rec
}

// IsStructural returns true for records that carry no value.
func (r *EventRecord) IsStructural() bool {
	switch r.Type {
	case hessian.EventOpen, hessian.EventClose, hessian.EventEnvelopeOpen, hessian.EventEnvelopeClose, hessian.EventDefinition:
		return true
	default:
		return false
	}
}
