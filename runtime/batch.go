package runtime

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/justapithecus/hessian/iox"
	"github.com/justapithecus/hessian/types"
)

// BatchConfig configures the batch operator.
type BatchConfig struct {
	// Parallel is the maximum number of concurrent sessions.
	Parallel int
	// MaxSessions caps the number of sessions run; zero is unlimited.
	MaxSessions int
}

// BatchItem is one input to decode in its own session.
type BatchItem struct {
	// Path is the input file.
	Path string
	// SessionID is the assigned session id.
	SessionID string
	// DedupKey identifies identical inputs; empty falls back to Path.
	DedupKey string
}

// BatchResult aggregates batch execution statistics.
type BatchResult struct {
	// SessionsTotal is the number of sessions executed.
	SessionsTotal int64
	// SessionsCompleted is the number of sessions with a completed outcome.
	SessionsCompleted int64
	// SessionsFailed is the number of sessions with any other outcome or an error.
	SessionsFailed int64
	// Deduped is the number of items skipped as duplicates.
	Deduped int64
	// Skipped is the number of items skipped by the session cap.
	Skipped int64
	// Results holds each session result, keyed by session id.
	Results map[string]*SessionResult
	// Errors holds session errors, keyed by session id.
	Errors map[string]error
	// Paths maps session ids to input paths.
	Paths map[string]string
}

// SessionFactory builds and runs the session for one item.
type SessionFactory func(ctx context.Context, item BatchItem) (*SessionResult, error)

// Batch runs one session per input with bounded concurrency.
// Identical inputs (by dedup key) are decoded once.
type Batch struct {
	config  BatchConfig
	factory SessionFactory

	mu    sync.Mutex
	items []BatchItem
	seen  map[string]struct{}

	deduped   atomic.Int64
	skipped   atomic.Int64
	finished  atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64

	resultsMu sync.Mutex
	results   map[string]*SessionResult
	errors    map[string]error
	paths     map[string]string
}

// NewBatch creates a new batch operator.
func NewBatch(config BatchConfig, factory SessionFactory) *Batch {
	if config.Parallel <= 0 {
		config.Parallel = 1
	}
	return &Batch{
		config:  config,
		factory: factory,
		seen:    make(map[string]struct{}),
		results: make(map[string]*SessionResult),
		errors:  make(map[string]error),
		paths:   make(map[string]string),
	}
}

// Submit queues an item. Returns false if it was deduplicated or capped.
// A missing session id is generated.
func (b *Batch) Submit(item BatchItem) bool {
	key := item.DedupKey
	if key == "" {
		key = item.Path
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.seen[key]; exists {
		b.deduped.Add(1)
		return false
	}
	if b.config.MaxSessions > 0 && len(b.items) >= b.config.MaxSessions {
		b.skipped.Add(1)
		return false
	}
	b.seen[key] = struct{}{}

	if item.SessionID == "" {
		item.SessionID = NewSessionID()
	}
	item.DedupKey = key
	b.items = append(b.items, item)
	return true
}

// Run executes every queued session, at most Parallel at a time.
// Session failures are recorded, not returned; Run returns only ctx errors.
func (b *Batch) Run(ctx context.Context) error {
	b.mu.Lock()
	items := append([]BatchItem(nil), b.items...)
	b.items = b.items[:0]
	b.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.config.Parallel)

	for _, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			result, err := b.factory(gctx, item)
			b.record(item, result, err)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (b *Batch) record(item BatchItem, result *SessionResult, err error) {
	b.finished.Add(1)

	b.resultsMu.Lock()
	defer b.resultsMu.Unlock()

	b.paths[item.SessionID] = item.Path
	if result != nil {
		b.results[item.SessionID] = result
	}
	if err != nil {
		b.errors[item.SessionID] = err
	}

	if err == nil && result != nil && result.Outcome.Status == types.OutcomeCompleted {
		b.completed.Add(1)
	} else {
		b.failed.Add(1)
	}
}

// Results returns the aggregate batch statistics.
func (b *Batch) Results() BatchResult {
	b.resultsMu.Lock()
	defer b.resultsMu.Unlock()

	results := make(map[string]*SessionResult, len(b.results))
	for k, v := range b.results {
		results[k] = v
	}
	errs := make(map[string]error, len(b.errors))
	for k, v := range b.errors {
		errs[k] = v
	}
	paths := make(map[string]string, len(b.paths))
	for k, v := range b.paths {
		paths[k] = v
	}

	return BatchResult{
		SessionsTotal:     b.finished.Load(),
		SessionsCompleted: b.completed.Load(),
		SessionsFailed:    b.failed.Load(),
		Deduped:           b.deduped.Load(),
		Skipped:           b.skipped.Load(),
		Results:           results,
		Errors:            errs,
		Paths:             paths,
	}
}

// ExitCode returns the worst exit code across the batch.
func (r BatchResult) ExitCode() int {
	code := ExitCodeCompleted
	for id, res := range r.Results {
		c := ExitCodeFor(res.Outcome.Status)
		if _, failed := r.Errors[id]; failed {
			c = ExitCodeFailure
		}
		code = max(code, c)
	}
	if len(r.Errors) > 0 {
		code = ExitCodeFailure
	}
	return code
}

// HashInput returns the hex SHA-256 of the file at path, used as a dedup key.
func HashInput(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer iox.DiscardClose(f)

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteBatchSummary writes a human-readable batch summary.
func WriteBatchSummary(w io.Writer, result BatchResult) {
	_, _ = fmt.Fprintf(w, "\n=== Batch Summary ===\n")
	_, _ = fmt.Fprintf(w, "Sessions:   %d total, %d completed, %d failed\n",
		result.SessionsTotal, result.SessionsCompleted, result.SessionsFailed)
	_, _ = fmt.Fprintf(w, "Inputs:     %d deduped, %d skipped\n", result.Deduped, result.Skipped)

	if len(result.Paths) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "\n--- Sessions ---\n")
	ids := make([]string, 0, len(result.Paths))
	for id := range result.Paths {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return result.Paths[ids[i]] < result.Paths[ids[j]] })
	for _, id := range ids {
		if err, ok := result.Errors[id]; ok {
			_, _ = fmt.Fprintf(w, "  %s (%s): error=%v\n", result.Paths[id], id, err)
			continue
		}
		res := result.Results[id]
		_, _ = fmt.Fprintf(w, "  %s (%s): outcome=%s, messages=%d, events=%d, duration=%s\n",
			result.Paths[id], id, res.Outcome.Status, res.Messages, res.Events, res.Duration)
	}
}
