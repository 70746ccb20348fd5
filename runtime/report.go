package runtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/justapithecus/hessian/metrics"
	"github.com/justapithecus/hessian/types"
)

// SessionReport is the structured JSON report written by --report.
type SessionReport struct {
	SessionID   string              `json:"session_id"`
	Source      string              `json:"source"`
	Scope       string              `json:"scope"`
	Outcome     types.OutcomeStatus `json:"outcome"`
	Message     string              `json:"message"`
	ErrorKind   string              `json:"error_kind,omitempty"`
	ErrorOffset *int64              `json:"error_offset,omitempty"`
	ExitCode    int                 `json:"exit_code"`
	DurationMs  int64               `json:"duration_ms"`
	Messages    int64               `json:"messages"`
	Events      int64               `json:"events"`
	Bytes       int64               `json:"bytes"`
	Definitions int                 `json:"definitions"`

	Policy  *ReportPolicy     `json:"policy"`
	Metrics *metrics.Snapshot `json:"metrics"`
}

// ReportPolicy holds policy stats in the report.
type ReportPolicy struct {
	Name            string `json:"name"`
	EventsReceived  int64  `json:"events_received"`
	EventsPersisted int64  `json:"events_persisted"`
	Flushes         int64  `json:"flushes"`
	Errors          int64  `json:"errors"`
}

// BuildSessionReport composes a SessionReport from a SessionResult and metrics snapshot.
// The policyName is the policy name string (e.g. "strict", "buffered", "streaming").
func BuildSessionReport(result *SessionResult, snap metrics.Snapshot, policyName string) *SessionReport {
	report := &SessionReport{
		SessionID:   result.Meta.SessionID,
		Source:      result.Meta.Source,
		Scope:       result.Meta.Scope,
		Outcome:     result.Outcome.Status,
		Message:     result.Outcome.Message,
		ErrorOffset: result.Outcome.Offset,
		ExitCode:    ExitCodeFor(result.Outcome.Status),
		DurationMs:  result.Duration.Milliseconds(),
		Messages:    result.Messages,
		Events:      result.Events,
		Bytes:       result.Bytes,
		Definitions: result.Definitions,
		Policy: &ReportPolicy{
			Name:            policyName,
			EventsReceived:  result.Stats.TotalEvents,
			EventsPersisted: result.Stats.EventsPersisted,
			Flushes:         result.Stats.FlushCount,
			Errors:          result.Stats.Errors,
		},
		Metrics: &snap,
	}
	if result.Outcome.ErrorKind != nil {
		report.ErrorKind = *result.Outcome.ErrorKind
	}
	return report
}

// WriteSessionReport writes the report as JSON to the specified path.
// If path is "-", writes to stderr.
func WriteSessionReport(report *SessionReport, path string) error {
	if path == "" {
		return errors.New("report path must not be empty")
	}

	if path == "-" {
		if err := writeSessionReportTo(report, os.Stderr); err != nil {
			return fmt.Errorf("failed to write report to stderr: %w", err)
		}
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	if err := writeSessionReportTo(report, f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return f.Close()
}

// writeSessionReportTo writes report JSON to any writer.
func writeSessionReportTo(report *SessionReport, w io.Writer) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
