package metrics

import "time"

// MetricsEvent is one point in the operational event stream. Tags identify
// the emitting component and correlation ids (turn_id, tool); Fields carry
// free-form payload like token counts.
type MetricsEvent struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

// Observer consumes metrics events. Implementations must tolerate concurrent
// RecordEvent calls and must never block the caller for long; slow sinks
// belong behind AsyncObserver.
type Observer interface {
	RecordEvent(ev MetricsEvent)
}

type Flusher interface {
	Flush() error
}

type NoopObserver struct{}

func (NoopObserver) RecordEvent(MetricsEvent) {}
