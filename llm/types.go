package llm

import (
	"encoding/json"
	"fmt"
)

// Role identifies who produced a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model-initiated tool invocation request. The ID is unique
// within the assistant turn that emitted it; Arguments are the raw,
// provider-supplied JSON, not yet validated against any schema.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Message is a single conversation turn.
//
// ToolCalls is populated only on assistant messages that request tools.
// ToolCallID is populated only on tool-result messages and links the
// result back to the request that produced it.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	IsError    bool       `json:"is_error,omitempty"`
}

// SystemMessage creates a system Message.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// UserMessage creates a user Message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage creates an assistant Message with text content.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// ToolResultMessage creates a tool-result Message linked to a request.
func ToolResultMessage(toolCallID, content string, isError bool) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: toolCallID,
		IsError:    isError,
	}
}

// ToolDefinition is the serializable description of a tool sent to the
// provider. Parameters hold a JSON Schema object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request is the normalized input for Complete and Stream.
type Request struct {
	Model       string           `json:"model"`
	Messages    []Message        `json:"messages"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	Provider    string           `json:"provider,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
	MaxTokens   *int             `json:"max_tokens,omitempty"`
}

// Validate checks the adapter-contract preconditions: the message
// sequence must be non-empty and begin with a system or user message.
func (r Request) Validate() error {
	if len(r.Messages) == 0 {
		return &InvalidRequestError{ProviderError: ProviderError{
			SDKError: SDKError{Message: "request has no messages"},
		}}
	}
	if first := r.Messages[0].Role; first != RoleSystem && first != RoleUser {
		return &InvalidRequestError{ProviderError: ProviderError{
			SDKError: SDKError{Message: fmt.Sprintf("conversation must begin with a system or user message, got %q", first)},
		}}
	}
	return nil
}

// Usage tracks token consumption for one or more model calls.
type Usage struct {
	InputTokens     int `json:"input_tokens"`
	OutputTokens    int `json:"output_tokens"`
	TotalTokens     int `json:"total_tokens"`
	ReasoningTokens int `json:"reasoning_tokens,omitempty"`
	CachedTokens    int `json:"cached_tokens,omitempty"`
}

// Add returns a new Usage that is the sum of u and other.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:     u.InputTokens + other.InputTokens,
		OutputTokens:    u.OutputTokens + other.OutputTokens,
		TotalTokens:     u.TotalTokens + other.TotalTokens,
		ReasoningTokens: u.ReasoningTokens + other.ReasoningTokens,
		CachedTokens:    u.CachedTokens + other.CachedTokens,
	}
}

// FinishReason values reported by adapters.
const (
	FinishStop      = "stop"
	FinishToolCalls = "tool_calls"
	FinishLength    = "length"
)

// Response is the normalized output of a model call. On success exactly
// one of Text / ToolCalls is populated.
type Response struct {
	ID           string     `json:"id"`
	Model        string     `json:"model"`
	Provider     string     `json:"provider"`
	Text         string     `json:"text,omitempty"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason"`
	Usage        Usage      `json:"usage"`
}

// HasToolCalls reports whether the model requested any tool invocations.
func (r *Response) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// Validate enforces the normalized contract: exactly one of final text or
// tool-call requests must be populated, and tool-call IDs are unique
// within the response. A response violating either is reported as
// malformed.
func (r *Response) Validate() error {
	switch {
	case r.Text == "" && len(r.ToolCalls) == 0:
		return &MalformedResponseError{SDKError: SDKError{
			Message: "provider returned neither final text nor tool calls",
		}}
	case r.Text != "" && len(r.ToolCalls) > 0:
		return &MalformedResponseError{SDKError: SDKError{
			Message: "provider returned both final text and tool calls",
		}}
	}
	seen := make(map[string]bool, len(r.ToolCalls))
	for _, tc := range r.ToolCalls {
		if seen[tc.ID] {
			return &MalformedResponseError{SDKError: SDKError{
				Message: fmt.Sprintf("provider returned duplicate tool call ID %q", tc.ID),
			}}
		}
		seen[tc.ID] = true
	}
	return nil
}
