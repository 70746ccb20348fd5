// Package metrics provides per-session metrics collection.
//
// The Collector accumulates counters during a single decode session. It is a
// leaf package with no internal dependencies. Delivery policy metrics are
// absorbed from policy.Stats at session completion rather than recorded live,
// avoiding double-counting.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Session lifecycle
	SessionsStarted   int64
	SessionsCompleted int64
	SessionsFailed    int64

	// Decoder
	BytesConsumed    int64
	MessagesDecoded  int64
	EventsByType     map[string]int64
	DecodeErrors     int64
	DecodeErrsByKind map[string]int64
	FramesRead       int64

	// Delivery (absorbed from policy.Stats at session completion)
	EventsReceived  int64
	EventsPersisted int64
	Flushes         int64

	// Lode / Storage
	LodeWriteSuccess int64
	LodeWriteFailure int64

	// Dimensions (informational, set at construction)
	Policy         string
	Scope          string
	StorageBackend string
	SessionID      string
}

// Collector accumulates metrics during a single session.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	// Session lifecycle
	sessionsStarted   int64
	sessionsCompleted int64
	sessionsFailed    int64

	// Decoder
	bytesConsumed    int64
	messagesDecoded  int64
	eventsByType     map[string]int64
	decodeErrors     int64
	decodeErrsByKind map[string]int64
	framesRead       int64

	// Lode / Storage
	lodeWriteSuccess int64
	lodeWriteFailure int64

	// Delivery (set once via AbsorbPolicyStats)
	eventsReceived  int64
	eventsPersisted int64
	flushes         int64

	// Dimensions
	policy         string
	scope          string
	storageBackend string
	sessionID      string
}

// NewCollector creates a Collector with dimension labels.
// sessionID is optional.
func NewCollector(policy, scope, storageBackend, sessionID string) *Collector {
	return &Collector{
		eventsByType:     make(map[string]int64),
		decodeErrsByKind: make(map[string]int64),
		policy:           policy,
		scope:            scope,
		storageBackend:   storageBackend,
		sessionID:        sessionID,
	}
}

// --- Session lifecycle ---

// IncSessionStarted records a session start.
func (c *Collector) IncSessionStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsStarted++
	c.mu.Unlock()
}

// IncSessionCompleted records a session that decoded its whole stream.
func (c *Collector) IncSessionCompleted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsCompleted++
	c.mu.Unlock()
}

// IncSessionFailed records a session that ended with any other outcome.
func (c *Collector) IncSessionFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsFailed++
	c.mu.Unlock()
}

// --- Decoder ---

// AddBytes records bytes fed to the decoder.
func (c *Collector) AddBytes(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.bytesConsumed += n
	c.mu.Unlock()
}

// IncMessages records a completed top-level message.
func (c *Collector) IncMessages() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.messagesDecoded++
	c.mu.Unlock()
}

// IncEvent records one decoder event by type.
// Event types are strings to keep this package free of the hessian package.
func (c *Collector) IncEvent(eventType string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.eventsByType[eventType]++
	c.mu.Unlock()
}

// IncDecodeError records a fatal decode error by kind.
func (c *Collector) IncDecodeError(kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.decodeErrors++
	c.decodeErrsByKind[kind]++
	c.mu.Unlock()
}

// IncFramesRead records a length-prefixed capture frame.
func (c *Collector) IncFramesRead() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.framesRead++
	c.mu.Unlock()
}

// --- Lode / Storage ---
// Lode counters are per-call, not per-record. A single WriteEvents call
// with N events counts as 1 success.

// IncLodeWriteSuccess records a successful Lode write operation (per-call).
func (c *Collector) IncLodeWriteSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.lodeWriteSuccess++
	c.mu.Unlock()
}

// IncLodeWriteFailure records a failed Lode write operation (per-call).
func (c *Collector) IncLodeWriteFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.lodeWriteFailure++
	c.mu.Unlock()
}

// --- Delivery (absorbed from policy.Stats) ---

// AbsorbPolicyStats copies delivery counters from policy.Stats into the collector.
// Called once after session completion with the final policy stats snapshot.
func (c *Collector) AbsorbPolicyStats(totalEvents, persisted, flushes int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.eventsReceived = totalEvents
	c.eventsPersisted = persisted
	c.flushes = flushes
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		SessionsStarted:   c.sessionsStarted,
		SessionsCompleted: c.sessionsCompleted,
		SessionsFailed:    c.sessionsFailed,

		BytesConsumed:    c.bytesConsumed,
		MessagesDecoded:  c.messagesDecoded,
		EventsByType:     copyCounts(c.eventsByType),
		DecodeErrors:     c.decodeErrors,
		DecodeErrsByKind: copyCounts(c.decodeErrsByKind),
		FramesRead:       c.framesRead,

		EventsReceived:  c.eventsReceived,
		EventsPersisted: c.eventsPersisted,
		Flushes:         c.flushes,

		LodeWriteSuccess: c.lodeWriteSuccess,
		LodeWriteFailure: c.lodeWriteFailure,

		Policy:         c.policy,
		Scope:          c.scope,
		StorageBackend: c.storageBackend,
		SessionID:      c.sessionID,
	}
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
