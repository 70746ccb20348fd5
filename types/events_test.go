package types //nolint:revive // types is a valid package name

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/justapithecus/hessian/hessian"
)

func TestEventRecord_IsStructural(t *testing.T) {
	tests := []struct {
		eventType hessian.EventType
		want      bool
	}{
		{hessian.EventOpen, true},
		{hessian.EventClose, true},
		{hessian.EventEnvelopeOpen, true},
		{hessian.EventEnvelopeClose, true},
		{hessian.EventDefinition, true},
		{hessian.EventScalar, false},
		{hessian.EventField, false},
		{hessian.EventHeader, false},
		{hessian.EventMethod, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			rec := &EventRecord{Type: tt.eventType}
			if got := rec.IsStructural(); got != tt.want {
				t.Errorf("EventRecord{Type: %q}.IsStructural() = %v, want %v", tt.eventType, got, tt.want)
			}
		})
	}
}

func TestNewEventRecord(t *testing.T) {
	meta := &SessionMeta{SessionID: "s-1", Source: "fixtures"}
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ev := hessian.Event{
		Type:   hessian.EventScalar,
		Kind:   hessian.KindBinary,
		ID:     hessian.NoID,
		DefID:  hessian.NoID,
		Value:  []byte("hi"),
		Offset: 7,
	}
	rec := NewEventRecord(meta, 3, 1, ev, ts)

	if rec.RecordVersion != RecordVersion {
		t.Errorf("RecordVersion = %q, want %q", rec.RecordVersion, RecordVersion)
	}
	if rec.SessionID != "s-1" || rec.Source != "fixtures" {
		t.Errorf("session fields = %q/%q", rec.SessionID, rec.Source)
	}
	if rec.Seq != 3 || rec.Message != 1 || rec.Offset != 7 {
		t.Errorf("seq/message/offset = %d/%d/%d, want 3/1/7", rec.Seq, rec.Message, rec.Offset)
	}
	if rec.Value != "aGk=" {
		t.Errorf("Value = %v, want base64 aGk=", rec.Value)
	}
	if rec.Ts != "2026-03-01T12:00:00Z" {
		t.Errorf("Ts = %q", rec.Ts)
	}
}

func TestNewEventRecord_Envelope(t *testing.T) {
	meta := &SessionMeta{SessionID: "s-2"}
	ev := hessian.Event{
		Type:    hessian.EventEnvelopeOpen,
		Kind:    hessian.KindCall,
		ID:      hessian.NoID,
		DefID:   hessian.NoID,
		Version: &hessian.Version{Major: 2, Minor: 0},
	}
	rec := NewEventRecord(meta, 1, 0, ev, time.Now())
	if rec.Version != "2.0" {
		t.Errorf("Version = %q, want 2.0", rec.Version)
	}
	if rec.Length != nil {
		t.Errorf("Length = %d, want nil for non-list events", *rec.Length)
	}
}

func TestNewEventRecord_ListLength(t *testing.T) {
	meta := &SessionMeta{SessionID: "s-3"}
	tests := []struct {
		name   string
		length int
		want   string
	}{
		{"declared zero", 0, `"length":0`},
		{"declared three", 3, `"length":3`},
		{"undeclared", -1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := hessian.Event{Type: hessian.EventOpen, Kind: hessian.KindList, ID: 0, DefID: hessian.NoID, Length: tt.length}
			rec := NewEventRecord(meta, 1, 0, ev, time.Now())

			data, err := json.Marshal(rec)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if tt.want == "" {
				if rec.Length != nil || strings.Contains(string(data), `"length"`) {
					t.Errorf("undeclared length was written: %s", data)
				}
				return
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("record %s lacks %s", data, tt.want)
			}
		})
	}
}
