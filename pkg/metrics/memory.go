package metrics

import "sync"

// MemoryObserver buffers events in memory. Test helper.
type MemoryObserver struct {
	mu     sync.Mutex
	events []MetricsEvent
}

func NewMemoryObserver() *MemoryObserver {
	return &MemoryObserver{}
}

func (m *MemoryObserver) RecordEvent(ev MetricsEvent) {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
}

// Events returns a snapshot of everything recorded so far.
func (m *MemoryObserver) Events() []MetricsEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MetricsEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Named filters the snapshot down to events with the given name.
func (m *MemoryObserver) Named(name string) []MetricsEvent {
	var out []MetricsEvent
	for _, ev := range m.Events() {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}
