package runner

import (
	"bytes"
	"context"
	"os"

	"github.com/dimiro1/banner"
)

// State tracks where a process is in its lifecycle. Transitions only move
// forward; a stopped runner cannot be restarted.
type State int

const (
	StateNew State = iota
	StateStarting
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Runner owns the lifetime of a long-running service process.
type Runner interface {
	Run(ctx context.Context) error
	Stop() error
	State() State
}

// Hooks are called at the edges of the lifecycle. OnStart runs before the
// runner blocks; OnStop runs after draining completes.
type Hooks struct {
	OnStart func()
	OnStop  func()
}

// Drainer finishes in-flight work before shutdown completes.
type Drainer interface {
	Drain() error
}

// DrainFunc adapts a plain function to the Drainer interface.
type DrainFunc func() error

func (f DrainFunc) Drain() error { return f() }

const Version = "dev"

func PrintBanner(service string) {
	tpl := "{{ .Title \"STRUM\" \"\" 0 }}\nService: " + service + "  Version: " + Version + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}
