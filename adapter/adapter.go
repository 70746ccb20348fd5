// Package adapter defines the notification boundary for finished sessions.
//
// Adapters publish session completion notifications to downstream systems.
// The session runner owns adapter lifecycle; users provide configuration only.
package adapter

import (
	"context"
	"time"

	"github.com/justapithecus/hessian/types"
)

// EventTypeSessionCompleted is the event_type of every completion event.
const EventTypeSessionCompleted = "session_completed"

// SessionCompletedEvent is the payload published when a session finishes.
type SessionCompletedEvent struct {
	SchemaVersion string `json:"schema_version"`
	EventType     string `json:"event_type"` // always "session_completed"
	SessionID     string `json:"session_id"`
	Source        string `json:"source"`
	Scope         string `json:"scope"`
	Day           string `json:"day"`
	Outcome       string `json:"outcome"` // completed, truncated, corrupt, ...
	StoragePath   string `json:"storage_path,omitempty"`
	Timestamp     string `json:"timestamp"` // RFC 3339
	Messages      int64  `json:"messages"`
	EventCount    int64  `json:"event_count"`
	Bytes         int64  `json:"bytes"`
	DurationMs    int64  `json:"duration_ms"`
}

// NewSessionCompletedEvent builds the completion event for a session summary.
func NewSessionCompletedEvent(summary *types.SessionSummary, day, storagePath string, now time.Time) *SessionCompletedEvent {
	return &SessionCompletedEvent{
		SchemaVersion: types.Version,
		EventType:     EventTypeSessionCompleted,
		SessionID:     summary.SessionID,
		Source:        summary.Source,
		Scope:         summary.Scope,
		Day:           day,
		Outcome:       string(summary.Outcome),
		StoragePath:   storagePath,
		Timestamp:     now.UTC().Format(time.RFC3339),
		Messages:      summary.Messages,
		EventCount:    summary.Events,
		Bytes:         summary.Bytes,
		DurationMs:    summary.DurationMs,
	}
}

// Adapter publishes session completion events to a downstream system.
// Implementations must be safe for single use per session.
type Adapter interface {
	// Publish sends a completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *SessionCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

// Backoff returns the delay before retry attempt i (1-based).
// Delays double from 500ms.
func Backoff(i int) time.Duration {
	if i < 1 {
		return 0
	}
	return time.Duration(1<<uint(i-1)) * 500 * time.Millisecond
}

// Wait blocks for the backoff before attempt i or until ctx is done.
func Wait(ctx context.Context, i int) error {
	d := Backoff(i)
	if d == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
