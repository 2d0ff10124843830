package llm

import "encoding/json"

type PartKind string

const (
	PartText           PartKind = "text"
	PartToolInvocation PartKind = "tool-invocation"
)

type InvocationStatus string

const (
	StatusPending  InvocationStatus = "pending"
	StatusExecuted InvocationStatus = "executed"
	StatusDeferred InvocationStatus = "deferred-to-client"
)

type ContentPart interface {
	Kind() PartKind
}

type TextPart struct {
	Text string `json:"text"`
}

func (TextPart) Kind() PartKind { return PartText }

// ToolInvocationPart records one tool call inside an assistant message.
// A deferred-to-client invocation keeps Result empty; rendering happens on
// the caller side from Args alone.
type ToolInvocationPart struct {
	CallID   string           `json:"callId"`
	ToolName string           `json:"toolName"`
	Args     map[string]any   `json:"args"`
	Status   InvocationStatus `json:"status"`
	Result   string           `json:"result,omitempty"`
}

func (ToolInvocationPart) Kind() PartKind { return PartToolInvocation }

// decodePart picks the concrete part type by its discriminating field. Only
// tool-invocation parts carry toolName; everything else is text.
func decodePart(raw json.RawMessage) (ContentPart, error) {
	var probe struct {
		ToolName string `json:"toolName"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}
	if probe.ToolName != "" {
		var p ToolInvocationPart
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	}
	var p TextPart
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p, nil
}
