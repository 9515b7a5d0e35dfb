package log

// Logger receives the liveliness, historic, coherent and ownership events a
// reader emits for its matched writers. A nil Logger is treated as
// NoopLogger.
type Logger interface {
	// Log records one event. It is called from Receive, control handling
	// and timer goroutines, often for several writers at once, and runs
	// inline with sample delivery.
	Log(event Event)
}

// NoopLogger drops every event.
type NoopLogger struct{}

// Log drops the event.
func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}
