package lode

import (
	"fmt"

	"github.com/justapithecus/hessian/types"
)

// Record kind discriminator values.
const (
	RecordKindEvent   = "event"
	RecordKindSummary = types.SummaryRecordKind
)

// SummaryEventType is the event_type partition value of summary records.
const SummaryEventType = "summary"

// toEventRecordMap converts an EventRecord to a map for Lode storage.
// Lode HiveLayout requires records as map[string]any carrying every
// partition key.
func toEventRecordMap(r *types.EventRecord, cfg Config) map[string]any {
	m := map[string]any{
		"record_kind":    RecordKindEvent,
		"record_version": r.RecordVersion,
		"session_id":     cfg.SessionID,
		"seq":            r.Seq,
		"message":        r.Message,
		"ts":             r.Ts,
		"type":           string(r.Type),
		"event_type":     string(r.Type), // partition key
		"id":             r.ID,
		"def_id":         r.DefID,
		"offset":         r.Offset,
		"source":         cfg.Source,
		"day":            cfg.Day,
	}
	if r.Kind != "" {
		m["kind"] = string(r.Kind)
	}
	if r.TypeName != "" {
		m["type_name"] = r.TypeName
	}
	if r.Field != "" {
		m["field"] = r.Field
	}
	if r.Value != nil {
		m["value"] = r.Value
	}
	if r.Length != nil {
		m["length"] = *r.Length
	}
	if r.Version != "" {
		m["version"] = r.Version
	}
	if len(r.Fields) > 0 {
		m["fields"] = r.Fields
	}
	return m
}

// toSummaryRecordMap converts a SessionSummary to a map for Lode storage.
func toSummaryRecordMap(s *types.SessionSummary, cfg Config) map[string]any {
	m := map[string]any{
		"record_kind": RecordKindSummary,
		"session_id":  cfg.SessionID,
		"scope":       s.Scope,
		"outcome":     string(s.Outcome),
		"messages":    s.Messages,
		"events":      s.Events,
		"bytes":       s.Bytes,
		"definitions": s.Definitions,
		"started_at":  s.StartedAt,
		"finished_at": s.FinishedAt,
		"duration_ms": s.DurationMs,
		"event_type":  SummaryEventType, // partition key
		"source":      cfg.Source,
		"day":         cfg.Day,
	}
	if s.Message != "" {
		m["message"] = s.Message
	}
	return m
}

// summaryFromMap reads a stored summary record back.
// JSONL decoding yields float64 for every number.
func summaryFromMap(m map[string]any) (*types.SessionSummary, error) {
	if toString(m["record_kind"]) != RecordKindSummary {
		return nil, fmt.Errorf("record_kind %v is not %s", m["record_kind"], RecordKindSummary)
	}
	return &types.SessionSummary{
		RecordKind:  RecordKindSummary,
		SessionID:   toString(m["session_id"]),
		Source:      toString(m["source"]),
		Scope:       toString(m["scope"]),
		Outcome:     types.OutcomeStatus(toString(m["outcome"])),
		Message:     toString(m["message"]),
		Messages:    toInt64(m["messages"]),
		Events:      toInt64(m["events"]),
		Bytes:       toInt64(m["bytes"]),
		Definitions: int(toInt64(m["definitions"])),
		StartedAt:   toString(m["started_at"]),
		FinishedAt:  toString(m["finished_at"]),
		DurationMs:  toInt64(m["duration_ms"]),
	}, nil
}

// toString converts a value to string, returning empty string for nil/non-string.
func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// toInt64 converts a decoded JSON number to int64.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
