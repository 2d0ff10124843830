package toolchan

import (
	"context"
	"errors"
	"fmt"
)

// Errors every channel implementation maps transport outcomes onto.
var (
	// ErrInvokeTimeout means the remote never answered within the call timeout.
	ErrInvokeTimeout = errors.New("tool invocation timed out")
	// ErrTransportClosed means the channel closed with invocations pending,
	// or an invocation was attempted on a closed channel.
	ErrTransportClosed = errors.New("tool transport closed")
)

// RemoteFaultError is an in-band failure reported by the tool provider.
type RemoteFaultError struct {
	Tool    string
	Message string
	Code    int
}

func (e *RemoteFaultError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("remote fault in %s: %s", e.Tool, e.Message)
	}
	return fmt.Sprintf("remote fault: %s", e.Message)
}

// IsRemoteFault reports whether err is a tool-provider fault.
func IsRemoteFault(err error) bool {
	var rf *RemoteFaultError
	return errors.As(err, &rf)
}

// RemoteTool describes a tool advertised by the provider at session start.
type RemoteTool struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Channel carries tool invocations to an out-of-process provider and
// correlates asynchronous responses back to the caller. Implementations hold
// at most one session; every sent invocation resolves with a result or one of
// the errors above, and Close releases the underlying resource exactly once.
type Channel interface {
	Name() string
	ListTools(ctx context.Context) ([]RemoteTool, error)
	Invoke(ctx context.Context, tool string, args map[string]any) (string, error)
	Close() error
}
