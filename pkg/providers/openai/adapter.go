package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/harunnryd/strum/pkg/errorsx"
	"github.com/harunnryd/strum/pkg/llm"
	"github.com/harunnryd/strum/pkg/resilience"
)

// Adapter implements llm.ModelAdapter over the OpenAI chat completions API.
type Adapter struct {
	client openai.Client
	model  string
}

func NewAdapter(apiKey, model string, opts ...option.RequestOption) *Adapter {
	all := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Adapter{
		client: openai.NewClient(all...),
		model:  model,
	}
}

func (a *Adapter) Name() string { return "openai" }

func (a *Adapter) Generate(ctx context.Context, input llm.Context) (llm.Response, error) {
	params := a.buildParams(input)
	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.Response{}, translateError(err)
	}
	if len(resp.Choices) == 0 {
		return llm.Response{}, errorsx.New(errorsx.ReasonLLMGenerate, "no choices in completion")
	}
	choice := resp.Choices[0]
	out := llm.Response{
		Text:         choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: parseArguments(tc.Function.Arguments),
		})
	}
	return out, nil
}

// Stream opens a streamed completion. Text arrives as deltas; tool calls are
// accumulated across chunks by index and emitted whole once their arguments
// finish, so consumers never see a partial call.
func (a *Adapter) Stream(ctx context.Context, input llm.Context) (<-chan llm.Chunk, error) {
	params := a.buildParams(input)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: param.NewOpt(true),
	}
	stream := a.client.Chat.Completions.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		_ = stream.Close()
		return nil, translateError(err)
	}

	out := make(chan llm.Chunk, 64)
	go func() {
		defer close(out)
		defer stream.Close()

		emit := func(chunk llm.Chunk) bool {
			select {
			case out <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		pending := newToolCallAccumulator()
		for stream.Next() {
			chunk := stream.Current()
			if chunk.Usage.TotalTokens > 0 {
				usage := llm.Usage{
					PromptTokens:     int(chunk.Usage.PromptTokens),
					CompletionTokens: int(chunk.Usage.CompletionTokens),
					TotalTokens:      int(chunk.Usage.TotalTokens),
				}
				if !emit(llm.Chunk{Usage: &usage}) {
					return
				}
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0]
			if choice.Delta.Content != "" {
				if !emit(llm.Chunk{TextDelta: choice.Delta.Content}) {
					return
				}
			}
			for _, tc := range choice.Delta.ToolCalls {
				pending.add(tc)
			}
			if choice.FinishReason != "" {
				for _, call := range pending.drain() {
					if !emit(llm.Chunk{ToolCall: &call}) {
						return
					}
				}
				emit(llm.Chunk{FinishReason: string(choice.FinishReason)})
				return
			}
		}
		if err := stream.Err(); err != nil {
			emit(llm.Chunk{Err: translateError(err)})
			return
		}
		// Stream ended without an explicit finish reason. Flush whatever
		// accumulated so the caller is not left with silent partial calls.
		for _, call := range pending.drain() {
			if !emit(llm.Chunk{ToolCall: &call}) {
				return
			}
		}
	}()
	return out, nil
}

func (a *Adapter) buildParams(input llm.Context) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if input.System != "" {
		messages = append(messages, openai.SystemMessage(input.System))
	}
	for _, msg := range input.Messages {
		switch msg.Role {
		case llm.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case llm.RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(msg.Content))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				assistant.Content.OfString = param.NewOpt(msg.Content)
			}
			for _, tc := range msg.ToolCalls {
				args, _ := json.Marshal(tc.Arguments)
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: string(args),
					},
				})
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case llm.RoleTool:
			if msg.ToolResult != nil {
				messages = append(messages, openai.ToolMessage(msg.ToolResult.Content, msg.ToolResult.CallID))
			}
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    a.model,
		Messages: messages,
	}
	for _, tool := range input.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: param.NewOpt(tool.Description),
				Parameters:  openai.FunctionParameters(tool.Schema),
			},
		})
	}
	return params
}

// toolCallAccumulator reassembles streamed tool call fragments. The API sends
// the ID and name on the first fragment of each index and argument deltas on
// the rest.
type toolCallAccumulator struct {
	order []int64
	byIdx map[int64]*llm.ToolCall
	args  map[int64]string
}

func newToolCallAccumulator() *toolCallAccumulator {
	return &toolCallAccumulator{
		byIdx: make(map[int64]*llm.ToolCall),
		args:  make(map[int64]string),
	}
}

func (t *toolCallAccumulator) add(tc openai.ChatCompletionChunkChoiceDeltaToolCall) {
	call, ok := t.byIdx[tc.Index]
	if !ok {
		call = &llm.ToolCall{}
		t.byIdx[tc.Index] = call
		t.order = append(t.order, tc.Index)
	}
	if tc.ID != "" {
		call.ID = tc.ID
	}
	call.Name += tc.Function.Name
	t.args[tc.Index] += tc.Function.Arguments
}

func (t *toolCallAccumulator) drain() []llm.ToolCall {
	out := make([]llm.ToolCall, 0, len(t.order))
	for _, idx := range t.order {
		call := t.byIdx[idx]
		call.Arguments = parseArguments(t.args[idx])
		out = append(out, *call)
	}
	t.order = nil
	return out
}

func parseArguments(raw string) map[string]any {
	args := map[string]any{}
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &args)
	}
	return args
}

func translateError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return errorsx.Wrap(
			resilience.RateLimitError{Provider: "openai", Message: apiErr.Error()},
			errorsx.ReasonLLMRateLimit,
		)
	}
	return errorsx.Wrap(err, errorsx.ReasonLLMGenerate)
}
