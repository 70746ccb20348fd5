package lode

import (
	"errors"
	"testing"

	"github.com/justapithecus/lode/lode"

	"github.com/justapithecus/hessian/types"
)

func writeSummary(t *testing.T, factory lode.StoreFactory, cfg Config, outcome types.OutcomeStatus, events int64) {
	t.Helper()
	client, err := NewLodeClientWithFactory(cfg, factory)
	if err != nil {
		t.Fatalf("NewLodeClientWithFactory failed: %v", err)
	}
	summary := &types.SessionSummary{
		SessionID:   cfg.SessionID,
		Source:      cfg.Source,
		Scope:       "message",
		Outcome:     outcome,
		Messages:    2,
		Events:      events,
		Bytes:       64,
		Definitions: 1,
		StartedAt:   "2026-02-03T15:00:00Z",
		FinishedAt:  "2026-02-03T15:00:01Z",
		DurationMs:  1000,
	}
	if err := client.WriteSummary(t.Context(), summary); err != nil {
		t.Fatalf("WriteSummary failed: %v", err)
	}
}

func TestQueryLatestSummary_WriteAndRead(t *testing.T) {
	factory := sharedFactory(lode.NewMemory())
	writeSummary(t, factory, testConfig("s-1"), types.OutcomeCompleted, 42)

	ds, err := NewReadDataset(DefaultDataset, factory)
	if err != nil {
		t.Fatalf("NewReadDataset failed: %v", err)
	}

	got, err := QueryLatestSummary(t.Context(), ds, "", "")
	if err != nil {
		t.Fatalf("QueryLatestSummary failed: %v", err)
	}

	want := types.SessionSummary{
		RecordKind:  RecordKindSummary,
		SessionID:   "s-1",
		Source:      "capture.bin",
		Scope:       "message",
		Outcome:     types.OutcomeCompleted,
		Messages:    2,
		Events:      42,
		Bytes:       64,
		Definitions: 1,
		StartedAt:   "2026-02-03T15:00:00Z",
		FinishedAt:  "2026-02-03T15:00:01Z",
		DurationMs:  1000,
	}
	if *got != want {
		t.Errorf("summary = %+v\nwant %+v", *got, want)
	}
}

func TestQueryLatestSummary_LatestWins(t *testing.T) {
	factory := sharedFactory(lode.NewMemory())
	writeSummary(t, factory, testConfig("s-1"), types.OutcomeCompleted, 1)
	writeSummary(t, factory, testConfig("s-2"), types.OutcomeTruncated, 2)

	ds, err := NewReadDataset(DefaultDataset, factory)
	if err != nil {
		t.Fatalf("NewReadDataset failed: %v", err)
	}

	got, err := QueryLatestSummary(t.Context(), ds, "", "")
	if err != nil {
		t.Fatalf("QueryLatestSummary failed: %v", err)
	}
	if got.SessionID != "s-2" || got.Outcome != types.OutcomeTruncated {
		t.Errorf("latest = %s/%s, want s-2/truncated", got.SessionID, got.Outcome)
	}
}

func TestQueryLatestSummary_FilterBySession(t *testing.T) {
	factory := sharedFactory(lode.NewMemory())
	writeSummary(t, factory, testConfig("s-1"), types.OutcomeCompleted, 1)
	writeSummary(t, factory, testConfig("s-10"), types.OutcomeCorrupt, 2)

	ds, err := NewReadDataset(DefaultDataset, factory)
	if err != nil {
		t.Fatalf("NewReadDataset failed: %v", err)
	}

	got, err := QueryLatestSummary(t.Context(), ds, "s-1", "")
	if err != nil {
		t.Fatalf("QueryLatestSummary failed: %v", err)
	}
	if got.SessionID != "s-1" || got.Events != 1 {
		t.Errorf("filtered = %s/%d, want s-1/1", got.SessionID, got.Events)
	}
}

func TestQueryLatestSummary_IgnoresEventSnapshots(t *testing.T) {
	factory := sharedFactory(lode.NewMemory())
	writeSummary(t, factory, testConfig("s-1"), types.OutcomeCompleted, 3)

	client, err := NewLodeClientWithFactory(testConfig("s-1"), factory)
	if err != nil {
		t.Fatalf("NewLodeClientWithFactory failed: %v", err)
	}
	if err := client.WriteEvents(t.Context(), testRecords()); err != nil {
		t.Fatalf("WriteEvents failed: %v", err)
	}

	ds, err := NewReadDataset(DefaultDataset, factory)
	if err != nil {
		t.Fatalf("NewReadDataset failed: %v", err)
	}
	got, err := QueryLatestSummary(t.Context(), ds, "", "")
	if err != nil {
		t.Fatalf("QueryLatestSummary failed: %v", err)
	}
	if got.Events != 3 {
		t.Errorf("Events = %d, want 3", got.Events)
	}
}

func TestQueryLatestSummary_NotFound(t *testing.T) {
	factory := sharedFactory(lode.NewMemory())

	client, err := NewLodeClientWithFactory(testConfig("s-1"), factory)
	if err != nil {
		t.Fatalf("NewLodeClientWithFactory failed: %v", err)
	}
	if err := client.WriteEvents(t.Context(), testRecords()); err != nil {
		t.Fatalf("WriteEvents failed: %v", err)
	}

	ds, err := NewReadDataset(DefaultDataset, factory)
	if err != nil {
		t.Fatalf("NewReadDataset failed: %v", err)
	}
	_, err = QueryLatestSummary(t.Context(), ds, "", "")
	if !errors.Is(err, ErrNoSummaryFound) {
		t.Errorf("expected ErrNoSummaryFound, got %v", err)
	}
}

func TestMatchesPartitionValue(t *testing.T) {
	path := "datasets/hessian/partitions/source=a/day=2026-02-03/session_id=s-10/event_type=summary/x.jsonl"
	if matchesPartitionValue(path, "session_id", "s-1") {
		t.Error("s-1 must not match s-10")
	}
	if !matchesPartitionValue(path, "session_id", "s-10") {
		t.Error("s-10 should match")
	}
	if !matchesPartitionValue(path, "event_type", SummaryEventType) {
		t.Error("event_type=summary should match")
	}
}

func TestSummaryFilter_Path(t *testing.T) {
	const base = "datasets/hessian/partitions/source=a/day=2026-02-03/session_id=s-1/"
	tests := []struct {
		name   string
		filter summaryFilter
		path   string
		want   bool
	}{
		{"any summary", summaryFilter{}, base + "event_type=summary/x.jsonl", true},
		{"events are not summaries", summaryFilter{}, base + "event_type=scalar/x.jsonl", false},
		{"session match", summaryFilter{sessionID: "s-1"}, base + "event_type=summary/x.jsonl", true},
		{"session mismatch", summaryFilter{sessionID: "s-2"}, base + "event_type=summary/x.jsonl", false},
		{"source match", summaryFilter{source: "a", sessionID: "s-1"}, base + "event_type=summary/x.jsonl", true},
		{"source mismatch", summaryFilter{source: "b"}, base + "event_type=summary/x.jsonl", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.path(tt.path); got != tt.want {
				t.Errorf("path(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
