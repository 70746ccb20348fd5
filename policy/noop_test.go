package policy_test

import (
	"testing"

	"github.com/justapithecus/hessian/policy"
)

func TestNoopPolicy_CountsWithoutPersisting(t *testing.T) {
	pol := policy.NewNoopPolicy()

	for _, r := range records(4) {
		if err := pol.IngestEvent(t.Context(), r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := pol.Flush(t.Context()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	stats := pol.Stats()
	if stats.TotalEvents != 4 {
		t.Errorf("TotalEvents = %d, want 4", stats.TotalEvents)
	}
	if stats.EventsPersisted != 0 {
		t.Errorf("EventsPersisted = %d, want 0", stats.EventsPersisted)
	}
	if stats.FlushCount != 1 {
		t.Errorf("FlushCount = %d, want 1", stats.FlushCount)
	}
	if err := pol.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
