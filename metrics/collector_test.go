package metrics

import (
	"sync"
	"testing"
)

func TestCollector_IncrementMethods(t *testing.T) {
	c := NewCollector("strict", "message", "fs", "session-001")

	c.IncSessionStarted()
	c.IncSessionCompleted()
	c.IncSessionFailed()
	c.IncSessionFailed()
	c.AddBytes(10)
	c.AddBytes(32)
	c.IncMessages()
	c.IncEvent("open")
	c.IncEvent("open")
	c.IncEvent("scalar")
	c.IncDecodeError("bad_ref")
	c.IncFramesRead()
	c.IncFramesRead()
	c.IncLodeWriteSuccess()
	c.IncLodeWriteSuccess()
	c.IncLodeWriteFailure()

	s := c.Snapshot()

	if s.SessionsStarted != 1 {
		t.Errorf("SessionsStarted = %d, want 1", s.SessionsStarted)
	}
	if s.SessionsCompleted != 1 {
		t.Errorf("SessionsCompleted = %d, want 1", s.SessionsCompleted)
	}
	if s.SessionsFailed != 2 {
		t.Errorf("SessionsFailed = %d, want 2", s.SessionsFailed)
	}
	if s.BytesConsumed != 42 {
		t.Errorf("BytesConsumed = %d, want 42", s.BytesConsumed)
	}
	if s.MessagesDecoded != 1 {
		t.Errorf("MessagesDecoded = %d, want 1", s.MessagesDecoded)
	}
	if s.EventsByType["open"] != 2 || s.EventsByType["scalar"] != 1 {
		t.Errorf("EventsByType = %v, want open:2 scalar:1", s.EventsByType)
	}
	if s.DecodeErrors != 1 || s.DecodeErrsByKind["bad_ref"] != 1 {
		t.Errorf("DecodeErrors = %d %v, want 1 bad_ref", s.DecodeErrors, s.DecodeErrsByKind)
	}
	if s.FramesRead != 2 {
		t.Errorf("FramesRead = %d, want 2", s.FramesRead)
	}
	if s.LodeWriteSuccess != 2 {
		t.Errorf("LodeWriteSuccess = %d, want 2", s.LodeWriteSuccess)
	}
	if s.LodeWriteFailure != 1 {
		t.Errorf("LodeWriteFailure = %d, want 1", s.LodeWriteFailure)
	}
}

func TestCollector_Dimensions(t *testing.T) {
	c := NewCollector("buffered", "stream", "s3", "session-42")
	s := c.Snapshot()

	if s.Policy != "buffered" {
		t.Errorf("Policy = %q, want %q", s.Policy, "buffered")
	}
	if s.Scope != "stream" {
		t.Errorf("Scope = %q, want %q", s.Scope, "stream")
	}
	if s.StorageBackend != "s3" {
		t.Errorf("StorageBackend = %q, want %q", s.StorageBackend, "s3")
	}
	if s.SessionID != "session-42" {
		t.Errorf("SessionID = %q, want %q", s.SessionID, "session-42")
	}
}

func TestCollector_AbsorbPolicyStats(t *testing.T) {
	c := NewCollector("buffered", "message", "fs", "")
	c.AbsorbPolicyStats(100, 100, 4)

	s := c.Snapshot()
	if s.EventsReceived != 100 {
		t.Errorf("EventsReceived = %d, want 100", s.EventsReceived)
	}
	if s.EventsPersisted != 100 {
		t.Errorf("EventsPersisted = %d, want 100", s.EventsPersisted)
	}
	if s.Flushes != 4 {
		t.Errorf("Flushes = %d, want 4", s.Flushes)
	}
}

func TestCollector_SnapshotImmutability(t *testing.T) {
	c := NewCollector("strict", "message", "fs", "session-001")
	c.IncSessionStarted()
	c.IncEvent("open")

	s1 := c.Snapshot()

	// Mutate collector after snapshot
	c.IncSessionCompleted()
	c.IncEvent("open")

	if s1.SessionsCompleted != 0 {
		t.Errorf("s1.SessionsCompleted = %d, want 0 (snapshot should be frozen)", s1.SessionsCompleted)
	}
	if s1.EventsByType["open"] != 1 {
		t.Errorf("s1.EventsByType[open] = %d, want 1 (snapshot should be frozen)", s1.EventsByType["open"])
	}

	// Mutating the snapshot must not reach the collector
	s1.EventsByType["injected"] = 1
	s2 := c.Snapshot()
	if _, exists := s2.EventsByType["injected"]; exists {
		t.Error("EventsByType should not contain injected key from snapshot mutation")
	}
	if s2.EventsByType["open"] != 2 {
		t.Errorf("s2.EventsByType[open] = %d, want 2", s2.EventsByType["open"])
	}
}

func TestCollector_NilReceiverSafety(t *testing.T) {
	var c *Collector

	// None of these should panic
	c.IncSessionStarted()
	c.IncSessionCompleted()
	c.IncSessionFailed()
	c.AddBytes(1)
	c.IncMessages()
	c.IncEvent("open")
	c.IncDecodeError("truncated")
	c.IncFramesRead()
	c.IncLodeWriteSuccess()
	c.IncLodeWriteFailure()
	c.AbsorbPolicyStats(10, 8, 2)

	s := c.Snapshot()
	if s.SessionsStarted != 0 {
		t.Errorf("nil collector snapshot SessionsStarted = %d, want 0", s.SessionsStarted)
	}
	if s.EventsByType != nil {
		t.Errorf("nil collector snapshot EventsByType should be nil, got %v", s.EventsByType)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	c := NewCollector("strict", "message", "fs", "session-001")
	const goroutines = 10
	const iterations = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for range goroutines {
		go func() {
			defer wg.Done()
			for range iterations {
				c.IncSessionStarted()
				c.AddBytes(2)
				c.IncEvent("scalar")
			}
		}()
	}

	wg.Wait()

	s := c.Snapshot()
	want := int64(goroutines * iterations)

	if s.SessionsStarted != want {
		t.Errorf("SessionsStarted = %d, want %d", s.SessionsStarted, want)
	}
	if s.BytesConsumed != 2*want {
		t.Errorf("BytesConsumed = %d, want %d", s.BytesConsumed, 2*want)
	}
	if s.EventsByType["scalar"] != want {
		t.Errorf("EventsByType[scalar] = %d, want %d", s.EventsByType["scalar"], want)
	}
}
