package toolchan

import (
	"errors"
	"testing"
	"time"

	"github.com/harunnryd/strum/pkg/toolwire"
)

func TestPendingResolveDeliversToCaller(t *testing.T) {
	p := newPendingTable(time.Second)
	wait, err := p.register("a")
	if err != nil {
		t.Fatal(err)
	}
	env, _ := toolwire.NewResponse("a", toolwire.TextResult("ok"))
	p.resolve(env)

	select {
	case got := <-wait:
		if got.ID != "a" {
			t.Errorf("delivered id = %s", got.ID)
		}
	default:
		t.Fatal("response not delivered")
	}
}

func TestPendingOrphanBuffering(t *testing.T) {
	p := newPendingTable(time.Second)
	env, _ := toolwire.NewResponse("early", toolwire.TextResult("ok"))
	p.resolve(env)

	wait, err := p.register("early")
	if err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-wait:
		if got.ID != "early" {
			t.Errorf("delivered id = %s", got.ID)
		}
	default:
		t.Fatal("orphaned response not handed to late register")
	}
}

func TestPendingOrphanExpires(t *testing.T) {
	p := newPendingTable(10 * time.Millisecond)
	env, _ := toolwire.NewResponse("stale", toolwire.TextResult("ok"))
	p.resolve(env)
	time.Sleep(30 * time.Millisecond)
	// Any later resolve sweeps expired orphans.
	other, _ := toolwire.NewResponse("fresh", toolwire.TextResult("ok"))
	p.resolve(other)

	wait, err := p.register("stale")
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-wait:
		t.Fatal("expired orphan was delivered")
	default:
	}
}

func TestPendingFailAll(t *testing.T) {
	p := newPendingTable(time.Second)
	wait, err := p.register("a")
	if err != nil {
		t.Fatal(err)
	}
	sentinel := errors.New("torn down")
	p.failAll(sentinel)

	if _, ok := <-wait; ok {
		t.Fatal("pending channel not closed on failAll")
	}
	if _, err := p.register("b"); !errors.Is(err, sentinel) {
		t.Errorf("register after close = %v, want sentinel", err)
	}
	// A second failAll must not panic or overwrite the first error.
	p.failAll(errors.New("other"))
	if _, err := p.register("c"); !errors.Is(err, sentinel) {
		t.Errorf("error overwritten: %v", err)
	}
}

func TestPendingEvictDropsRegistration(t *testing.T) {
	p := newPendingTable(time.Second)
	wait, err := p.register("a")
	if err != nil {
		t.Fatal(err)
	}
	p.evict("a")
	env, _ := toolwire.NewResponse("a", toolwire.TextResult("late"))
	p.resolve(env)

	select {
	case <-wait:
		t.Fatal("evicted call still received a response")
	default:
	}
}
