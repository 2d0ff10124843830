package toolwire

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Version is the JSON-RPC protocol version carried on every envelope.
const Version = "2.0"

// Methods understood by the tool protocol.
const (
	MethodInitialize = "initialize"
	MethodListTools  = "tools/list"
	MethodCallTool   = "tools/call"
)

// Envelope is a single framed protocol message. Requests carry Method and
// Params; responses carry Result or Error under the same correlation ID.
type Envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// IsResponse reports whether the envelope resolves a prior request.
func (e Envelope) IsResponse() bool { return e.Method == "" && e.ID != "" }

// RPCError is the in-band error object of a failed request.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Standard JSON-RPC error codes used by the tool server.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// NewRequest builds a request envelope with marshaled params.
func NewRequest(id, method string, params any) (Envelope, error) {
	env := Envelope{JSONRPC: Version, ID: id, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return Envelope{}, fmt.Errorf("marshal params for %s: %w", method, err)
		}
		env.Params = raw
	}
	return env, nil
}

// NewResponse builds a success response envelope.
func NewResponse(id string, result any) (Envelope, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal result: %w", err)
	}
	return Envelope{JSONRPC: Version, ID: id, Result: raw}, nil
}

// NewErrorResponse builds a failure response envelope.
func NewErrorResponse(id string, code int, message string) Envelope {
	return Envelope{JSONRPC: Version, ID: id, Error: &RPCError{Code: code, Message: message}}
}

// ToolSpec describes one remotely invocable tool.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

type ListToolsResult struct {
	Tools []ToolSpec `json:"tools"`
}

type CallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// CallResult is the payload of a tools/call response. IsError marks a fault
// raised by the tool itself rather than the transport.
type CallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// TextResult wraps plain text into a single-block call result.
func TextResult(text string) CallResult {
	return CallResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

// ErrorResult wraps a tool-level failure message.
func ErrorResult(text string) CallResult {
	return CallResult{Content: []ContentBlock{{Type: "text", Text: text}}, IsError: true}
}

// Text concatenates all text blocks of a call result.
func (r CallResult) Text() string {
	var b strings.Builder
	for _, c := range r.Content {
		if c.Type == "text" {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}

type InitializeResult struct {
	ServerName    string `json:"serverName"`
	ServerVersion string `json:"serverVersion"`
}
