package assistant

import "github.com/harunnryd/strum/pkg/llm"

type EventType string

const (
	// EventTextDelta carries one increment of assistant text.
	EventTextDelta EventType = "text-delta"
	// EventToolInvocation announces a tool call. Deferred-to-client
	// invocations arrive here with their original arguments and no result.
	EventToolInvocation EventType = "tool-invocation"
	// EventToolResult carries the outcome of a remotely executed tool.
	EventToolResult EventType = "tool-result"
	// EventFinish is the terminal event of every turn.
	EventFinish EventType = "finish"
)

type TurnStatus string

const (
	StatusCompleted         TurnStatus = "completed"
	StatusStepLimitExceeded TurnStatus = "step_limit_exceeded"
	StatusRateLimited       TurnStatus = "rate_limited"
	StatusFailed            TurnStatus = "failed"
)

// StreamEvent is one element of the lazy, finite, non-restartable event
// sequence a turn produces. Consumers pull until the channel closes; the
// finish event always closes it.
type StreamEvent struct {
	Type       EventType               `json:"type"`
	TextDelta  string                  `json:"textDelta,omitempty"`
	Invocation *llm.ToolInvocationPart `json:"toolInvocation,omitempty"`
	Result     *ToolResultEvent        `json:"toolResult,omitempty"`
	Status     TurnStatus              `json:"status,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

type ToolResultEvent struct {
	CallID   string `json:"callId"`
	ToolName string `json:"toolName"`
	Content  string `json:"content"`
	IsError  bool   `json:"isError,omitempty"`
}
