package toolchan

import (
	"sync"
	"time"

	"github.com/harunnryd/strum/pkg/toolwire"
)

// pendingTable correlates in-flight requests with asynchronously delivered
// responses. Responses may arrive in any order; a response whose correlation
// id is not yet registered is buffered briefly so a racing register still
// finds it.
type pendingTable struct {
	mu      sync.Mutex
	calls   map[string]chan toolwire.Envelope
	orphans map[string]orphan
	closed  bool
	err     error

	orphanTTL time.Duration
}

type orphan struct {
	env  toolwire.Envelope
	seen time.Time
}

func newPendingTable(orphanTTL time.Duration) *pendingTable {
	if orphanTTL <= 0 {
		orphanTTL = 30 * time.Second
	}
	return &pendingTable{
		calls:     make(map[string]chan toolwire.Envelope),
		orphans:   make(map[string]orphan),
		orphanTTL: orphanTTL,
	}
}

// register reserves a correlation id and returns the channel its response
// will be delivered on. If the response already arrived it resolves
// immediately.
func (p *pendingTable) register(id string) (<-chan toolwire.Envelope, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, p.err
	}
	ch := make(chan toolwire.Envelope, 1)
	if o, ok := p.orphans[id]; ok {
		delete(p.orphans, id)
		ch <- o.env
		return ch, nil
	}
	p.calls[id] = ch
	return ch, nil
}

// resolve delivers a response to its waiting caller, or buffers it when no
// caller registered yet.
func (p *pendingTable) resolve(env toolwire.Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if ch, ok := p.calls[env.ID]; ok {
		delete(p.calls, env.ID)
		ch <- env
		return
	}
	p.evictOrphansLocked()
	p.orphans[env.ID] = orphan{env: env, seen: time.Now()}
}

// evict drops a registration after a timeout so a late response cannot leak
// the reserved slot.
func (p *pendingTable) evict(id string) {
	p.mu.Lock()
	delete(p.calls, id)
	p.mu.Unlock()
}

// failAll closes the table: every pending call and every future register
// fails with err.
func (p *pendingTable) failAll(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.err = err
	for id, ch := range p.calls {
		delete(p.calls, id)
		close(ch)
	}
	p.orphans = map[string]orphan{}
}

func (p *pendingTable) evictOrphansLocked() {
	cutoff := time.Now().Add(-p.orphanTTL)
	for id, o := range p.orphans {
		if o.seen.Before(cutoff) {
			delete(p.orphans, id)
		}
	}
}
