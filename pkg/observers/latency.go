package observers

import (
	"log/slog"
	"sync"
	"time"

	"github.com/harunnryd/strum/pkg/metrics"
)

// LatencyObserver reconstructs per-turn timing from the metrics stream and
// logs one summary line when the turn completes. Turns that never complete
// are dropped by the age sweep.
type LatencyObserver struct {
	mu     sync.Mutex
	traces map[string]*trace
	log    *slog.Logger
}

type trace struct {
	started    time.Time
	firstToken time.Time
	toolCalls  int
}

func NewLatencyObserver(log *slog.Logger) *LatencyObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LatencyObserver{
		traces: make(map[string]*trace),
		log:    log,
	}
}

func (o *LatencyObserver) RecordEvent(ev metrics.MetricsEvent) {
	turnID := ""
	if ev.Tags != nil {
		turnID = ev.Tags["turn_id"]
	}
	if turnID == "" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	t := o.traces[turnID]
	if t == nil {
		t = &trace{}
		o.traces[turnID] = t
	}
	switch ev.Name {
	case metrics.EventTurnStarted:
		if t.started.IsZero() {
			t.started = ev.Time
		}
	case metrics.EventModelFirstToken:
		if t.firstToken.IsZero() {
			t.firstToken = ev.Time
		}
	case metrics.EventToolInvoked:
		t.toolCalls++
	case metrics.EventTurnCompleted:
		o.logTurnLocked(turnID, t, ev)
		delete(o.traces, turnID)
		o.sweepLocked(ev.Time)
	}
}

func (o *LatencyObserver) logTurnLocked(turnID string, t *trace, done metrics.MetricsEvent) {
	status := ""
	if done.Tags != nil {
		status = done.Tags["status"]
	}
	o.log.Info("turn latency",
		"turn_id", turnID,
		"status", status,
		"first_token_ms", durationMs(t.started, t.firstToken),
		"total_ms", durationMs(t.started, done.Time),
		"tool_calls", t.toolCalls,
	)
}

// sweepLocked drops traces older than an hour so abandoned turns cannot
// accumulate.
func (o *LatencyObserver) sweepLocked(now time.Time) {
	for id, t := range o.traces {
		if !t.started.IsZero() && now.Sub(t.started) > time.Hour {
			delete(o.traces, id)
		}
	}
}

func durationMs(a, b time.Time) int64 {
	if a.IsZero() || b.IsZero() {
		return -1
	}
	return b.Sub(a).Milliseconds()
}

var _ metrics.Observer = (*LatencyObserver)(nil)
