package hessian

// Sink consumes decoder events in byte order.
// A non-nil error is fatal for the decode (ErrorSink).
type Sink interface {
	Emit(ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev Event) error

// Emit calls f(ev).
func (f SinkFunc) Emit(ev Event) error {
	return f(ev)
}

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(Event) error { return nil })

// Collector records every event it receives.
// Not safe for concurrent use, like the Decoder driving it.
type Collector struct {
	Events []Event
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{Events: make([]Event, 0)}
}

// Emit appends ev.
func (c *Collector) Emit(ev Event) error {
	c.Events = append(c.Events, ev)
	return nil
}

// Types returns the recorded event types in order.
func (c *Collector) Types() []EventType {
	out := make([]EventType, len(c.Events))
	for i, ev := range c.Events {
		out[i] = ev.Type
	}
	return out
}

// Reset drops all recorded events.
func (c *Collector) Reset() {
	c.Events = c.Events[:0]
}

// Tee returns a Sink that forwards each event to every sink in order,
// stopping at the first error.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(ev Event) error {
		for _, s := range sinks {
			if err := s.Emit(ev); err != nil {
				return err
			}
		}
		return nil
	})
}
