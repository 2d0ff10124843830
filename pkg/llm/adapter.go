package llm

import (
	"context"
	"encoding/json"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is one entry of the caller-owned conversation history. Messages are
// immutable once appended; the gateway never persists them.
type Message struct {
	ID      string        `json:"id"`
	Role    Role          `json:"role"`
	Content string        `json:"content"`
	Parts   []ContentPart `json:"parts,omitempty"`
}

// UnmarshalJSON decodes parts into their concrete types. Callers echo
// assistant messages back in history, so tool-invocation parts must survive
// a decode round trip with their arguments intact.
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	aux := struct {
		*plain
		Parts []json.RawMessage `json:"parts"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.Parts = nil
	for _, raw := range aux.Parts {
		part, err := decodePart(raw)
		if err != nil {
			return err
		}
		m.Parts = append(m.Parts, part)
	}
	return nil
}

type Tool struct {
	Name        string
	Description string
	Schema      map[string]any
}

type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolResult carries the outcome of a tool call back into model context.
// IsError marks synthetic failure results so the model can recover on its own.
type ToolResult struct {
	CallID  string
	Name    string
	Content string
	IsError bool
}

// ChatMessage is the provider-facing message shape. Exactly one of Content,
// ToolCalls, or ToolResult is meaningful depending on Role.
type ChatMessage struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolResult *ToolResult
}

type Context struct {
	System   string
	Messages []ChatMessage
	Tools    []Tool
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ModelAdapter abstracts a chat-completion provider. Stream must deliver
// chunks until the provider signals a finish reason, then close the channel.
type ModelAdapter interface {
	Name() string
	Generate(ctx context.Context, input Context) (Response, error)
	Stream(ctx context.Context, input Context) (<-chan Chunk, error)
}

// Response is a fully assembled, non-streamed model reply.
type Response struct {
	Text         string
	ToolCalls    []ToolCall
	FinishReason string
	Usage        Usage
}
