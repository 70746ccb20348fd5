package ipc

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/justapithecus/hessian/policy"
	"github.com/justapithecus/hessian/types"
)

type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestEventFrameWriter_PolicyStream(t *testing.T) {
	out := &closeRecorder{}
	writer := NewEventFrameWriter(out)
	pol := policy.NewStrictPolicy(writer)

	for i := range 3 {
		if err := pol.IngestEvent(t.Context(), testRecord(int64(i+1))); err != nil {
			t.Fatalf("IngestEvent: %v", err)
		}
	}
	if err := writer.WriteSummary(&types.SessionSummary{SessionID: "session-001", Outcome: types.OutcomeCompleted, Events: 3}); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	if err := pol.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !out.closed {
		t.Error("expected underlying writer closed")
	}
	if writer.Frames() != 4 {
		t.Errorf("Frames = %d, want 4", writer.Frames())
	}

	recs, err := ReadRecords(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(recs) != 4 {
		t.Fatalf("read %d records, want 4", len(recs))
	}
	for i := range 3 {
		rec, ok := recs[i].(*types.EventRecord)
		if !ok {
			t.Fatalf("record %d is %T", i, recs[i])
		}
		if rec.Seq != int64(i+1) {
			t.Errorf("record %d seq = %d", i, rec.Seq)
		}
	}
	if _, ok := recs[3].(*types.SessionSummary); !ok {
		t.Errorf("last record is %T, want *types.SessionSummary", recs[3])
	}
}

func TestEventFrameWriter_CanceledContext(t *testing.T) {
	var buf bytes.Buffer
	writer := NewEventFrameWriter(&buf)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := writer.WriteEvents(ctx, []*types.EventRecord{testRecord(1)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if writer.Frames() != 0 {
		t.Errorf("Frames = %d, want 0", writer.Frames())
	}
}

func TestEventFrameWriter_CloseIdempotent(t *testing.T) {
	out := &closeRecorder{}
	writer := NewEventFrameWriter(out)

	if err := writer.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestReadRecords_StopsOnPartialFrame(t *testing.T) {
	payload, err := EncodeEventFrame(testRecord(1))
	if err != nil {
		t.Fatal(err)
	}
	data := append(encodeFrame(payload), 0x00, 0x00, 0x01)

	recs, err := ReadRecords(bytes.NewReader(data))
	if !IsFatalFrameError(err) {
		t.Fatalf("expected fatal frame error, got %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("read %d records before the error, want 1", len(recs))
	}
}
