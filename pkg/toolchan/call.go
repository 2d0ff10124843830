package toolchan

import (
	"context"
	"encoding/json"
	"time"

	"github.com/harunnryd/strum/pkg/errorsx"
	"github.com/harunnryd/strum/pkg/toolwire"
)

// awaitResponse blocks until the correlated response arrives, the call times
// out, the caller cancels, or the transport closes underneath the call.
func awaitResponse(ctx context.Context, p *pendingTable, wait <-chan toolwire.Envelope, id string, timeout time.Duration) (toolwire.Envelope, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case env, ok := <-wait:
		if !ok {
			return toolwire.Envelope{}, errorsx.Wrap(ErrTransportClosed, errorsx.ReasonTransportClosed)
		}
		if env.Error != nil {
			return toolwire.Envelope{}, errorsx.Wrap(&RemoteFaultError{Message: env.Error.Message, Code: env.Error.Code}, errorsx.ReasonRemoteFault)
		}
		return env, nil
	case <-timer.C:
		p.evict(id)
		return toolwire.Envelope{}, errorsx.Wrap(ErrInvokeTimeout, errorsx.ReasonToolTimeout)
	case <-ctx.Done():
		p.evict(id)
		return toolwire.Envelope{}, ctx.Err()
	}
}

func decodeToolList(env toolwire.Envelope) ([]RemoteTool, error) {
	var result toolwire.ListToolsResult
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonRemoteFault)
	}
	tools := make([]RemoteTool, 0, len(result.Tools))
	for _, t := range result.Tools {
		tools = append(tools, RemoteTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return tools, nil
}

func decodeCallResult(env toolwire.Envelope, tool string) (string, error) {
	var result toolwire.CallResult
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonRemoteFault)
	}
	if result.IsError {
		return "", errorsx.Wrap(&RemoteFaultError{Tool: tool, Message: result.Text()}, errorsx.ReasonRemoteFault)
	}
	return result.Text(), nil
}
