package hessian

import "fmt"

// EventType discriminates sink notifications.
type EventType string

// Event type constants.
const (
	// EventScalar reports a completed scalar (including refs).
	EventScalar EventType = "scalar"
	// EventOpen reports a composite whose header resolved.
	EventOpen EventType = "open"
	// EventField reports a completed scalar field of an object instance.
	EventField EventType = "field"
	// EventClose reports a completed composite.
	EventClose EventType = "close"
	// EventEnvelopeOpen reports a call, reply or remote envelope.
	EventEnvelopeOpen EventType = "envelope_open"
	// EventEnvelopeClose reports the end of an envelope.
	EventEnvelopeClose EventType = "envelope_close"
	// EventDefinition reports a registered object definition.
	EventDefinition EventType = "definition"
	// EventHeader reports an envelope header name; the header value follows.
	EventHeader EventType = "header"
	// EventMethod reports the method name of a call.
	EventMethod EventType = "method"
)

// Kind identifies the grammar production a value came from.
type Kind string

// Value kinds.
const (
	KindNull   Kind = "null"
	KindBool   Kind = "bool"
	KindInt    Kind = "int"
	KindLong   Kind = "long"
	KindDouble Kind = "double"
	KindDate   Kind = "date"
	KindString Kind = "string"
	KindXML    Kind = "xml"
	KindBinary Kind = "binary"
	KindRef    Kind = "ref"
	KindMap    Kind = "map"
	KindList   Kind = "list"
	KindObject Kind = "object"
	KindRemote Kind = "remote"
	KindFault  Kind = "fault"
	KindCall   Kind = "call"
	KindReply  Kind = "reply"
)

// Ref is a decoded back-reference id.
type Ref int

// XML is the value of an XML string production.
type XML string

// Version is an envelope protocol version.
type Version struct {
	Major int `msgpack:"major" json:"major" yaml:"major"`
	Minor int `msgpack:"minor" json:"minor" yaml:"minor"`
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Definition is an object layout registered once and reused by instances.
type Definition struct {
	ID     int      `msgpack:"id" json:"id" yaml:"id"`
	Type   string   `msgpack:"type" json:"type" yaml:"type"`
	Fields []string `msgpack:"fields" json:"fields" yaml:"fields"`
}

// NoID marks events without a table id.
const NoID = -1

// Event is a single sink notification.
//
// Which fields are set depends on Type:
//   - scalar, field: Kind, Value (field also sets Field)
//   - open: Kind, ID, TypeName; Field inside an object; Length for lists; DefID for objects
//   - close: Kind, ID
//   - envelope_open: Kind, Version (call, reply) or TypeName (remote)
//   - envelope_close: Kind
//   - definition: ID, TypeName, Fields
//   - header: Field
//   - method: Value (the method name)
type Event struct {
	Type     EventType `msgpack:"type" json:"type"`
	Kind     Kind      `msgpack:"kind,omitempty" json:"kind,omitempty"`
	ID       int       `msgpack:"id" json:"id"`
	DefID    int       `msgpack:"def_id" json:"def_id"`
	TypeName string    `msgpack:"type_name,omitempty" json:"type_name,omitempty"`
	Field    string    `msgpack:"field,omitempty" json:"field,omitempty"`
	Value    any       `msgpack:"value,omitempty" json:"value,omitempty"`
	Length   int       `msgpack:"length" json:"length"`
	Version  *Version  `msgpack:"version,omitempty" json:"version,omitempty"`
	Fields   []string  `msgpack:"fields,omitempty" json:"fields,omitempty"`
	// Offset is the position of the byte that produced the event.
	Offset int64 `msgpack:"offset" json:"offset"`
}

func (e Event) String() string {
	switch e.Type {
	case EventScalar:
		return fmt.Sprintf("%s %s %v", e.Type, e.Kind, e.Value)
	case EventField:
		return fmt.Sprintf("%s %s=%v", e.Type, e.Field, e.Value)
	case EventOpen:
		s := fmt.Sprintf("%s %s #%d", e.Type, e.Kind, e.ID)
		if e.TypeName != "" {
			s += " " + e.TypeName
		}
		if e.Field != "" {
			s += " field=" + e.Field
		}
		return s
	case EventClose:
		return fmt.Sprintf("%s %s #%d", e.Type, e.Kind, e.ID)
	case EventEnvelopeOpen:
		if e.Version != nil {
			return fmt.Sprintf("%s %s %s", e.Type, e.Kind, e.Version)
		}
		return fmt.Sprintf("%s %s %s", e.Type, e.Kind, e.TypeName)
	case EventEnvelopeClose:
		return fmt.Sprintf("%s %s", e.Type, e.Kind)
	case EventDefinition:
		return fmt.Sprintf("%s #%d %s%v", e.Type, e.ID, e.TypeName, e.Fields)
	case EventHeader:
		return fmt.Sprintf("%s %s", e.Type, e.Field)
	case EventMethod:
		return fmt.Sprintf("%s %v", e.Type, e.Value)
	default:
		return string(e.Type)
	}
}
