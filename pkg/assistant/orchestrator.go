package assistant

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harunnryd/strum/pkg/llm"
	"github.com/harunnryd/strum/pkg/metrics"
	"github.com/harunnryd/strum/pkg/registry"
	"github.com/harunnryd/strum/pkg/resilience"
)

// DefaultMaxSteps bounds model-to-tool round trips within one turn.
const DefaultMaxSteps = 20

// ToolInvoker executes one remote tool call. Satisfied by toolchan.Channel.
type ToolInvoker interface {
	Invoke(ctx context.Context, tool string, args map[string]any) (string, error)
}

type Config struct {
	SystemPrompt string
	MaxSteps     int
	EventBuffer  int
}

type Option func(*Orchestrator)

func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

func WithObserver(obs metrics.Observer) Option {
	return func(o *Orchestrator) { o.obs = obs }
}

// Orchestrator runs the multi-step loop between the model and the tool
// registry for independent, fully concurrent conversations. A single turn is
// one sequential state machine: each tool result must reach the model before
// the next step.
type Orchestrator struct {
	model   llm.ModelAdapter
	tools   *registry.Registry
	invoker ToolInvoker
	cfg     Config
	log     *slog.Logger
	obs     metrics.Observer
}

func New(model llm.ModelAdapter, tools *registry.Registry, invoker ToolInvoker, cfg Config, opts ...Option) *Orchestrator {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 64
	}
	o := &Orchestrator{
		model:   model,
		tools:   tools,
		invoker: invoker,
		cfg:     cfg,
		log:     slog.Default(),
		obs:     metrics.NoopObserver{},
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.With(slog.String("component", "assistant"))
	return o
}

// Turn produces the event stream for one conversation turn. The channel
// closes after the finish event; canceling ctx abandons the turn, cancels the
// in-flight model call and any outstanding invocation, and never rolls back
// work a tool already committed.
func (o *Orchestrator) Turn(ctx context.Context, history []llm.Message) <-chan StreamEvent {
	out := make(chan StreamEvent, o.cfg.EventBuffer)
	go o.run(ctx, history, out)
	return out
}

func (o *Orchestrator) run(ctx context.Context, history []llm.Message, out chan<- StreamEvent) {
	defer close(out)
	started := time.Now()
	turnID := uuid.NewString()
	var totalTokens int

	emit := func(ev StreamEvent) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	rec := func(name string, tags map[string]string, value float64, fields map[string]any) {
		if tags == nil {
			tags = map[string]string{}
		}
		tags["turn_id"] = turnID
		o.record(name, tags, value, fields)
	}
	finish := func(fsm *turnFSM, status TurnStatus, errText string) {
		if fsm != nil && fsm.State() != StateCompleted && fsm.State() != StateFailed {
			target := StateCompleted
			if status == StatusFailed {
				target = StateFailed
			}
			_ = fsm.Transition(target, string(status))
		}
		emit(StreamEvent{Type: EventFinish, Status: status, Error: errText})
		rec(metrics.EventTurnCompleted,
			map[string]string{"status": string(status)},
			time.Since(started).Seconds(),
			map[string]any{"tokens": totalTokens},
		)
	}

	rec(metrics.EventTurnStarted, nil, 0, nil)
	fsm := newTurnFSM()

	messages := filterHistory(history)
	if len(messages) == 0 {
		_ = fsm.Transition(StateFailed, "empty history")
		emit(StreamEvent{Type: EventFinish, Status: StatusFailed, Error: "conversation history is empty"})
		return
	}

	input := llm.Context{
		System:   o.cfg.SystemPrompt,
		Messages: messages,
		Tools:    o.tools.ModelTools(),
	}

	for step := 0; step < o.cfg.MaxSteps; step++ {
		if ctx.Err() != nil {
			return
		}
		if fsm.State() == StateSending {
			_ = fsm.Transition(StateAwaitingModel, "dispatching model request")
		} else {
			_ = fsm.Transition(StateAwaitingModel, "tool results applied")
		}

		stream, err := o.model.Stream(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if resilience.IsRateLimit(err) {
				rec(metrics.EventRateLimit, nil, 0, nil)
				finish(fsm, StatusRateLimited, "")
				return
			}
			o.log.Error("model call failed", slog.String("error", err.Error()))
			finish(fsm, StatusFailed, err.Error())
			return
		}

		var text strings.Builder
		var calls []llm.ToolCall
		streaming := false
	chunks:
		for {
			select {
			case <-ctx.Done():
				return
			case chunk, ok := <-stream:
				if !ok {
					break chunks
				}
				if chunk.Err != nil {
					if resilience.IsRateLimit(chunk.Err) {
						rec(metrics.EventRateLimit, nil, 0, nil)
						finish(fsm, StatusRateLimited, "")
						return
					}
					o.log.Error("model stream failed", slog.String("error", chunk.Err.Error()))
					finish(fsm, StatusFailed, chunk.Err.Error())
					return
				}
				if chunk.TextDelta != "" {
					if !streaming {
						streaming = true
						_ = fsm.Transition(StateStreaming, "first text chunk")
						rec(metrics.EventModelFirstToken, nil, time.Since(started).Seconds(), nil)
					}
					text.WriteString(chunk.TextDelta)
					if !emit(StreamEvent{Type: EventTextDelta, TextDelta: chunk.TextDelta}) {
						return
					}
				}
				if chunk.ToolCall != nil {
					calls = append(calls, *chunk.ToolCall)
				}
				if chunk.Usage != nil {
					totalTokens += chunk.Usage.TotalTokens
				}
			}
		}

		input.Messages = append(input.Messages, llm.ChatMessage{
			Role:      llm.RoleAssistant,
			Content:   text.String(),
			ToolCalls: calls,
		})

		if len(calls) == 0 {
			finish(fsm, StatusCompleted, "")
			return
		}

		_ = fsm.Transition(StateToolRequested, "model requested tools")
		deferredOnly := true
		for _, call := range calls {
			result, deferred, ok := o.dispatch(ctx, call, emit, rec)
			if ctx.Err() != nil {
				return
			}
			if !ok {
				return
			}
			if !deferred {
				deferredOnly = false
			}
			input.Messages = append(input.Messages, llm.ChatMessage{
				Role:       llm.RoleTool,
				ToolResult: &result,
			})
		}
		if deferredOnly {
			// Every call was a rendering instruction for the caller; another
			// model round trip has nothing new to work with.
			finish(fsm, StatusCompleted, "")
			return
		}
	}

	rec(metrics.EventStepLimit, nil, float64(o.cfg.MaxSteps), nil)
	o.log.Warn("step budget exhausted", slog.Int("max_steps", o.cfg.MaxSteps))
	finish(fsm, StatusStepLimitExceeded, "")
}

// dispatch routes one tool call. Remote failures become synthetic failed
// results so the model can recover; client-rendered calls are forwarded
// unresolved with their arguments intact and never reach the channel.
func (o *Orchestrator) dispatch(ctx context.Context, call llm.ToolCall, emit func(StreamEvent) bool, rec func(string, map[string]string, float64, map[string]any)) (result llm.ToolResult, deferred bool, ok bool) {
	descriptor, found := o.tools.Resolve(call.Name)
	if !found {
		rec(metrics.EventToolFailed, map[string]string{"tool": call.Name, "reason": "unknown"}, 0, nil)
		if !emit(StreamEvent{Type: EventToolResult, Result: &ToolResultEvent{
			CallID: call.ID, ToolName: call.Name, Content: "unknown tool: " + call.Name, IsError: true,
		}}) {
			return llm.ToolResult{}, false, false
		}
		return llm.ToolResult{CallID: call.ID, Name: call.Name, Content: "unknown tool: " + call.Name, IsError: true}, false, true
	}

	if descriptor.Kind == registry.KindClientRendered {
		if !emit(StreamEvent{Type: EventToolInvocation, Invocation: &llm.ToolInvocationPart{
			CallID:   call.ID,
			ToolName: call.Name,
			Args:     call.Arguments,
			Status:   llm.StatusDeferred,
		}}) {
			return llm.ToolResult{}, false, false
		}
		return llm.ToolResult{CallID: call.ID, Name: call.Name, Content: "Rendered in the client UI."}, true, true
	}

	if !emit(StreamEvent{Type: EventToolInvocation, Invocation: &llm.ToolInvocationPart{
		CallID:   call.ID,
		ToolName: call.Name,
		Args:     call.Arguments,
		Status:   llm.StatusPending,
	}}) {
		return llm.ToolResult{}, false, false
	}

	content, err := o.invoker.Invoke(ctx, call.Name, call.Arguments)
	if err != nil {
		if ctx.Err() != nil {
			return llm.ToolResult{}, false, false
		}
		rec(metrics.EventToolFailed, map[string]string{"tool": call.Name}, 0, nil)
		o.log.Warn("tool invocation failed",
			slog.String("tool", call.Name),
			slog.String("error", err.Error()),
		)
		content = "Tool call failed: " + err.Error()
		if !emit(StreamEvent{Type: EventToolResult, Result: &ToolResultEvent{
			CallID: call.ID, ToolName: call.Name, Content: content, IsError: true,
		}}) {
			return llm.ToolResult{}, false, false
		}
		return llm.ToolResult{CallID: call.ID, Name: call.Name, Content: content, IsError: true}, false, true
	}

	rec(metrics.EventToolInvoked, map[string]string{"tool": call.Name}, 0, nil)
	if !emit(StreamEvent{Type: EventToolResult, Result: &ToolResultEvent{
		CallID: call.ID, ToolName: call.Name, Content: content,
	}}) {
		return llm.ToolResult{}, false, false
	}
	return llm.ToolResult{CallID: call.ID, Name: call.Name, Content: content}, false, true
}

func (o *Orchestrator) record(name string, tags map[string]string, value float64, fields map[string]any) {
	if tags == nil {
		tags = map[string]string{}
	}
	tags["component"] = "assistant"
	o.obs.RecordEvent(metrics.MetricsEvent{Name: name, Time: time.Now(), Value: value, Tags: tags, Fields: fields})
}
