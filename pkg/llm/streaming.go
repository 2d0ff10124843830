package llm

import "context"

// Chunk is one increment of a streamed model response. TextDelta and ToolCall
// are mutually exclusive; FinishReason is set on the terminal chunk. A
// provider error after the stream opened arrives as Err on the final chunk.
type Chunk struct {
	TextDelta    string
	ToolCall     *ToolCall
	FinishReason string
	Usage        *Usage
	Err          error
}

const (
	FinishStop      = "stop"
	FinishToolCalls = "tool_calls"
	FinishLength    = "length"
)

// Collect drains a chunk stream into an assembled Response. Used by
// Generate implementations layered on Stream and by tests.
func Collect(ctx context.Context, ch <-chan Chunk) (Response, error) {
	var resp Response
	for {
		select {
		case <-ctx.Done():
			return resp, ctx.Err()
		case chunk, ok := <-ch:
			if !ok {
				return resp, nil
			}
			if chunk.Err != nil {
				return resp, chunk.Err
			}
			resp.Text += chunk.TextDelta
			if chunk.ToolCall != nil {
				resp.ToolCalls = append(resp.ToolCalls, *chunk.ToolCall)
			}
			if chunk.Usage != nil {
				resp.Usage = *chunk.Usage
			}
			if chunk.FinishReason != "" {
				resp.FinishReason = chunk.FinishReason
			}
		}
	}
}
