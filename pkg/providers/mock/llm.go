package mock

import (
	"context"
	"sync"

	"github.com/harunnryd/strum/pkg/llm"
)

// Step scripts one model round trip. Chunks stream in order, then tool calls,
// then the finish reason. Err aborts the step after the scripted chunks.
type Step struct {
	Chunks       []string
	ToolCalls    []llm.ToolCall
	FinishReason string
	Err          error
}

// LLMAdapter replays scripted steps, one per Stream or Generate call. It
// records every input it receives so tests can assert on the context the
// caller assembled.
type LLMAdapter struct {
	mu     sync.Mutex
	steps  []Step
	next   int
	Inputs []llm.Context
}

func NewLLMAdapter(steps ...Step) *LLMAdapter {
	return &LLMAdapter{steps: steps}
}

func (a *LLMAdapter) Name() string { return "mock_llm" }

func (a *LLMAdapter) take(input llm.Context) Step {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Inputs = append(a.Inputs, input)
	if a.next >= len(a.steps) {
		return Step{FinishReason: llm.FinishStop}
	}
	step := a.steps[a.next]
	a.next++
	return step
}

// Calls reports how many round trips the adapter has served.
func (a *LLMAdapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.Inputs)
}

func (a *LLMAdapter) Generate(ctx context.Context, input llm.Context) (llm.Response, error) {
	stream, err := a.Stream(ctx, input)
	if err != nil {
		return llm.Response{}, err
	}
	return llm.Collect(ctx, stream)
}

func (a *LLMAdapter) Stream(ctx context.Context, input llm.Context) (<-chan llm.Chunk, error) {
	step := a.take(input)
	if step.Err != nil && len(step.Chunks) == 0 && len(step.ToolCalls) == 0 {
		return nil, step.Err
	}
	out := make(chan llm.Chunk, len(step.Chunks)+len(step.ToolCalls)+2)
	go func() {
		defer close(out)
		for _, text := range step.Chunks {
			select {
			case <-ctx.Done():
				return
			case out <- llm.Chunk{TextDelta: text}:
			}
		}
		if step.Err != nil {
			out <- llm.Chunk{Err: step.Err}
			return
		}
		for i := range step.ToolCalls {
			out <- llm.Chunk{ToolCall: &step.ToolCalls[i]}
		}
		reason := step.FinishReason
		if reason == "" {
			if len(step.ToolCalls) > 0 {
				reason = llm.FinishToolCalls
			} else {
				reason = llm.FinishStop
			}
		}
		out <- llm.Chunk{FinishReason: reason}
	}()
	return out, nil
}
