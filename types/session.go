//nolint:revive // types is a common Go package naming convention
package types

import (
	"errors"
	"time"
)

// SessionMeta identifies one decode session over one byte stream.
type SessionMeta struct {
	// SessionID is the session identifier. Must be unique per stream.
	SessionID string
	// Source is a caller-defined label (file name, peer address).
	Source string
	// Scope is the id scope the decoder runs with ("message" or "stream").
	Scope string
	// StartedAt is when the session began.
	StartedAt time.Time
}

// Validate checks the metadata required before a session starts.
func (m *SessionMeta) Validate() error {
	if m.SessionID == "" {
		return errors.New("session_id must be non-empty")
	}
	if m.Source == "" {
		return errors.New("source must be non-empty")
	}
	return nil
}

// OutcomeStatus is the terminal status of a session.
type OutcomeStatus string

const (
	// OutcomeCompleted indicates every byte decoded into complete messages.
	OutcomeCompleted OutcomeStatus = "completed"
	// OutcomeTruncated indicates the stream ended inside a message.
	OutcomeTruncated OutcomeStatus = "truncated"
	// OutcomeCorrupt indicates bytes that can never decode.
	OutcomeCorrupt OutcomeStatus = "corrupt"
	// OutcomePolicyFailure indicates events could not be delivered.
	OutcomePolicyFailure OutcomeStatus = "policy_failure"
	// OutcomeCanceled indicates the session context was canceled.
	OutcomeCanceled OutcomeStatus = "canceled"
)

// Outcome describes how a session ended.
type Outcome struct {
	// Status is the outcome status.
	Status OutcomeStatus `msgpack:"status" json:"status"`
	// Message is a human-readable description.
	Message string `msgpack:"message" json:"message"`
	// ErrorKind is the decode error kind (truncated, corrupt).
	ErrorKind *string `msgpack:"error_kind,omitempty" json:"error_kind,omitempty"`
	// Offset is the stream offset of the failure (truncated, corrupt).
	Offset *int64 `msgpack:"offset,omitempty" json:"offset,omitempty"`
}

// SummaryRecordKind discriminates summary records from event records in
// the capture dataset.
const SummaryRecordKind = "session_summary"

// SessionSummary is the record written once a session ends.
type SessionSummary struct {
	RecordKind  string        `msgpack:"type" json:"record_kind"`
	SessionID   string        `msgpack:"session_id" json:"session_id"`
	Source      string        `msgpack:"source" json:"source"`
	Scope       string        `msgpack:"scope" json:"scope"`
	Outcome     OutcomeStatus `msgpack:"outcome" json:"outcome"`
	Message     string        `msgpack:"message,omitempty" json:"message,omitempty"`
	Messages    int64         `msgpack:"messages" json:"messages"`
	Events      int64         `msgpack:"events" json:"events"`
	Bytes       int64         `msgpack:"bytes" json:"bytes"`
	Definitions int           `msgpack:"definitions" json:"definitions"`
	StartedAt   string        `msgpack:"started_at" json:"started_at"`
	FinishedAt  string        `msgpack:"finished_at" json:"finished_at"`
	DurationMs  int64         `msgpack:"duration_ms" json:"duration_ms"`
}

// CaptureFile is a raw byte capture stored next to the decoded events.
// It bypasses the dataset machinery and is written directly to the store.
type CaptureFile struct {
	// Filename is the target filename (no path separators, no "..").
	Filename string
	// ContentType is the MIME content type.
	ContentType string
	// Data is the captured bytes.
	Data []byte
}
