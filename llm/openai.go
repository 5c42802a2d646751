package llm

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

// ChatAdapter implements ProviderAdapter over any backend that speaks
// the OpenAI chat-completions wire format. The OpenAI, Azure, and Ollama
// constructors all produce a ChatAdapter; only the transport options and
// the provider name differ.
type ChatAdapter struct {
	name   string
	client openaisdk.Client
}

// OpenAIConfig holds configuration for the hosted OpenAI backend.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
}

// NewOpenAIAdapter creates an adapter for the hosted OpenAI API.
func NewOpenAIAdapter(cfg OpenAIConfig) (*ChatAdapter, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigurationError{SDKError: SDKError{Message: "openai: missing API key"}}
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &ChatAdapter{name: "openai", client: openaisdk.NewClient(opts...)}, nil
}

// newChatAdapter builds an adapter with a caller-supplied name and
// transport options. Used by the Azure and Ollama constructors.
func newChatAdapter(name string, opts ...option.RequestOption) *ChatAdapter {
	return &ChatAdapter{name: name, client: openaisdk.NewClient(opts...)}
}

// Name returns the provider identifier.
func (a *ChatAdapter) Name() string { return a.name }

// Complete sends a blocking request and returns the full response.
func (a *ChatAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	params, err := a.buildParams(req, false)
	if err != nil {
		return nil, err
	}

	completion, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, a.translateError(ctx, err)
	}
	if len(completion.Choices) == 0 {
		return nil, &MalformedResponseError{SDKError: SDKError{
			Message: fmt.Sprintf("[%s] completion has no choices", a.name),
		}}
	}

	choice := completion.Choices[0]
	resp := &Response{
		ID:           completion.ID,
		Model:        completion.Model,
		Provider:     a.name,
		FinishReason: normalizeFinishReason(choice.FinishReason),
		Usage: Usage{
			InputTokens:     int(completion.Usage.PromptTokens),
			OutputTokens:    int(completion.Usage.CompletionTokens),
			TotalTokens:     int(completion.Usage.TotalTokens),
			ReasoningTokens: int(completion.Usage.CompletionTokensDetails.ReasoningTokens),
			CachedTokens:    int(completion.Usage.PromptTokensDetails.CachedTokens),
		},
	}

	for _, tc := range choice.Message.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: []byte(tc.Function.Arguments),
		})
	}
	if len(resp.ToolCalls) == 0 {
		resp.Text = choice.Message.Content
	}

	return resp, nil
}

// Stream sends a request and emits incremental fragments. Tool-call
// arguments arrive as deltas keyed by call ID; consumers must buffer
// them until the matching ToolCallEnd event.
func (a *ChatAdapter) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	params, err := a.buildParams(req, true)
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamEvent, 64)
	go func() {
		defer close(ch)
		a.streamChat(ctx, params, ch)
	}()
	return ch, nil
}

func (a *ChatAdapter) streamChat(ctx context.Context, params openaisdk.ChatCompletionNewParams, ch chan<- StreamEvent) {
	stream := a.client.Chat.Completions.NewStreaming(ctx, params)

	ch <- StreamEvent{Type: StreamStart}

	// The wire format keys tool-call deltas by index; the call ID only
	// appears on the first delta for each index.
	idByIndex := make(map[int64]string)
	var open []int64
	var finish string
	var usage *Usage

	for stream.Next() {
		chunk := stream.Current()

		for _, choice := range chunk.Choices {
			delta := choice.Delta

			if delta.Content != "" {
				ch <- StreamEvent{Type: TextDelta, Delta: delta.Content}
			}

			for _, tc := range delta.ToolCalls {
				id, seen := idByIndex[tc.Index]
				if !seen {
					id = tc.ID
					idByIndex[tc.Index] = id
					open = append(open, tc.Index)
					ch <- StreamEvent{
						Type:       ToolCallStart,
						ToolCallID: id,
						ToolName:   tc.Function.Name,
						ArgsDelta:  tc.Function.Arguments,
					}
					continue
				}
				if tc.Function.Arguments != "" {
					ch <- StreamEvent{
						Type:       ToolCallDelta,
						ToolCallID: id,
						ArgsDelta:  tc.Function.Arguments,
					}
				}
			}

			if choice.FinishReason != "" {
				finish = normalizeFinishReason(choice.FinishReason)
				for _, idx := range open {
					ch <- StreamEvent{Type: ToolCallEnd, ToolCallID: idByIndex[idx]}
				}
				open = nil
			}
		}

		// Usage arrives on the final chunk with include_usage set.
		if chunk.Usage.TotalTokens > 0 {
			usage = &Usage{
				InputTokens:     int(chunk.Usage.PromptTokens),
				OutputTokens:    int(chunk.Usage.CompletionTokens),
				TotalTokens:     int(chunk.Usage.TotalTokens),
				ReasoningTokens: int(chunk.Usage.CompletionTokensDetails.ReasoningTokens),
				CachedTokens:    int(chunk.Usage.PromptTokensDetails.CachedTokens),
			}
		}
	}

	if err := stream.Err(); err != nil {
		ch <- StreamEvent{Type: StreamError, Err: a.translateError(ctx, err)}
		return
	}

	// Close any calls the stream never flagged as finished.
	for _, idx := range open {
		ch <- StreamEvent{Type: ToolCallEnd, ToolCallID: idByIndex[idx]}
	}

	ch <- StreamEvent{Type: StreamFinish, FinishReason: finish, Usage: usage}
}

func (a *ChatAdapter) buildParams(req Request, streaming bool) (openaisdk.ChatCompletionNewParams, error) {
	msgs, err := convertMessages(req.Messages)
	if err != nil {
		return openaisdk.ChatCompletionNewParams{}, err
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: msgs,
	}
	if streaming {
		params.StreamOptions = openaisdk.ChatCompletionStreamOptionsParam{
			IncludeUsage: param.NewOpt(true),
		}
	}
	if req.Temperature != nil {
		params.Temperature = param.NewOpt(*req.Temperature)
	}
	if req.MaxTokens != nil {
		params.MaxCompletionTokens = param.NewOpt(int64(*req.MaxTokens))
	}
	if len(req.Tools) > 0 {
		params.Tools = convertTools(req.Tools)
	}
	return params, nil
}

func convertMessages(msgs []Message) ([]openaisdk.ChatCompletionMessageParamUnion, error) {
	result := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case RoleSystem:
			result = append(result, openaisdk.SystemMessage(msg.Content))
		case RoleUser:
			result = append(result, openaisdk.UserMessage(msg.Content))
		case RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				assistant := openaisdk.ChatCompletionAssistantMessageParam{}
				if msg.Content != "" {
					assistant.Content.OfString = param.NewOpt(msg.Content)
				}
				for _, tc := range msg.ToolCalls {
					assistant.ToolCalls = append(assistant.ToolCalls, openaisdk.ChatCompletionMessageToolCallParam{
						ID: tc.ID,
						Function: openaisdk.ChatCompletionMessageToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: string(tc.Arguments),
						},
					})
				}
				result = append(result, openaisdk.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
			} else {
				result = append(result, openaisdk.AssistantMessage(msg.Content))
			}
		case RoleTool:
			result = append(result, openaisdk.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			return nil, &InvalidRequestError{ProviderError: ProviderError{
				SDKError: SDKError{Message: fmt.Sprintf("unsupported message role %q", msg.Role)},
			}}
		}
	}
	return result, nil
}

func convertTools(tools []ToolDefinition) []openaisdk.ChatCompletionToolParam {
	result := make([]openaisdk.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		result = append(result, openaisdk.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        t.Name,
				Description: param.NewOpt(t.Description),
				Parameters:  shared.FunctionParameters(t.Parameters),
			},
		})
	}
	return result
}

func normalizeFinishReason(raw string) string {
	switch raw {
	case "tool_calls", "function_call":
		return FinishToolCalls
	case "length":
		return FinishLength
	default:
		return FinishStop
	}
}

// translateError maps SDK and transport errors into the normalized
// taxonomy. Context cancellation takes precedence over whatever error
// the transport reported for the aborted request.
func (a *ChatAdapter) translateError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return &AbortError{SDKError: SDKError{Message: "request cancelled", Cause: ctx.Err()}}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &RequestTimeoutError{SDKError: SDKError{Message: "request timed out", Cause: err}}
	}

	var apierr *openaisdk.Error
	if errors.As(err, &apierr) {
		var retryAfter *float64
		if apierr.Response != nil {
			if ra := apierr.Response.Header.Get("Retry-After"); ra != "" {
				if secs, perr := strconv.ParseFloat(ra, 64); perr == nil {
					retryAfter = &secs
				}
			}
		}
		return ErrorFromStatusCode(apierr.StatusCode, apierr.Message, a.name, retryAfter)
	}

	// Anything below the HTTP layer is a transport failure.
	return &NetworkError{SDKError: SDKError{Message: fmt.Sprintf("[%s] request failed", a.name), Cause: err}}
}
