package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// StreamEventType identifies the kind of stream fragment.
type StreamEventType string

const (
	StreamStart   StreamEventType = "stream_start"
	TextDelta     StreamEventType = "text_delta"
	ToolCallStart StreamEventType = "tool_call_start"
	ToolCallDelta StreamEventType = "tool_call_delta"
	ToolCallEnd   StreamEventType = "tool_call_end"
	StreamFinish  StreamEventType = "finish"
	StreamError   StreamEventType = "error"
)

// StreamEvent is a single incremental fragment of a streamed response.
//
// Tool-call argument fragments arrive as ToolCallDelta events keyed by
// ToolCallID; the arguments are complete only once the matching
// ToolCallEnd event has been observed.
type StreamEvent struct {
	Type         StreamEventType `json:"type"`
	Delta        string          `json:"delta,omitempty"`
	ToolCallID   string          `json:"tool_call_id,omitempty"`
	ToolName     string          `json:"tool_name,omitempty"`
	ArgsDelta    string          `json:"args_delta,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"`
	Usage        *Usage          `json:"usage,omitempty"`
	Err          error           `json:"-"`
}

// StreamAccumulator collects stream fragments into a complete Response.
// Partial tool-call arguments are buffered per call ID and parsed only
// when the stream signals completion for that call.
type StreamAccumulator struct {
	provider string
	model    string

	text      strings.Builder
	order     []string
	names     map[string]string
	argBufs   map[string]*strings.Builder
	completed map[string]bool
	finish    string
	usage     Usage
}

// NewStreamAccumulator creates an accumulator for one streamed call.
func NewStreamAccumulator(provider, model string) *StreamAccumulator {
	return &StreamAccumulator{
		provider:  provider,
		model:     model,
		names:     make(map[string]string),
		argBufs:   make(map[string]*strings.Builder),
		completed: make(map[string]bool),
	}
}

// Process ingests a single fragment.
func (sa *StreamAccumulator) Process(event StreamEvent) {
	switch event.Type {
	case TextDelta:
		sa.text.WriteString(event.Delta)
	case ToolCallStart:
		if _, seen := sa.argBufs[event.ToolCallID]; !seen {
			sa.order = append(sa.order, event.ToolCallID)
			sa.argBufs[event.ToolCallID] = &strings.Builder{}
		}
		if event.ToolName != "" {
			sa.names[event.ToolCallID] = event.ToolName
		}
		sa.argBufs[event.ToolCallID].WriteString(event.ArgsDelta)
	case ToolCallDelta:
		buf, ok := sa.argBufs[event.ToolCallID]
		if !ok {
			buf = &strings.Builder{}
			sa.order = append(sa.order, event.ToolCallID)
			sa.argBufs[event.ToolCallID] = buf
		}
		buf.WriteString(event.ArgsDelta)
	case ToolCallEnd:
		if event.ToolName != "" {
			sa.names[event.ToolCallID] = event.ToolName
		}
		sa.completed[event.ToolCallID] = true
	case StreamFinish:
		sa.finish = event.FinishReason
		if event.Usage != nil {
			sa.usage = *event.Usage
		}
	}
}

// Response assembles the accumulated fragments into a Response. Buffered
// tool-call arguments are parsed here, never earlier; invalid argument
// JSON degrades to an empty object so the call still reaches the
// executor, where schema validation reports the problem to the model.
func (sa *StreamAccumulator) Response() *Response {
	var calls []ToolCall
	for _, id := range sa.order {
		raw := sa.argBufs[id].String()
		if !json.Valid([]byte(raw)) {
			raw = "{}"
		}
		calls = append(calls, ToolCall{
			ID:        id,
			Name:      sa.names[id],
			Arguments: json.RawMessage(raw),
		})
	}

	finish := sa.finish
	if finish == "" {
		if len(calls) > 0 {
			finish = FinishToolCalls
		} else {
			finish = FinishStop
		}
	}

	resp := &Response{
		Model:        sa.model,
		Provider:     sa.provider,
		FinishReason: finish,
		Usage:        sa.usage,
		ToolCalls:    calls,
	}
	if len(calls) == 0 {
		resp.Text = sa.text.String()
	}
	return resp
}

// Aggregate drains a fragment channel into a complete Response. It is
// the single consumer of the stream: it honors ctx while waiting for
// fragments and surfaces mid-stream errors as the call's failure.
func Aggregate(ctx context.Context, provider, model string, events <-chan StreamEvent) (*Response, error) {
	sa := NewStreamAccumulator(provider, model)
	for {
		select {
		case <-ctx.Done():
			return nil, &AbortError{SDKError: SDKError{Message: "cancelled mid-stream", Cause: ctx.Err()}}
		case event, ok := <-events:
			if !ok {
				return sa.Response(), nil
			}
			if event.Type == StreamError {
				if event.Err != nil {
					return nil, event.Err
				}
				return nil, &NetworkError{SDKError: SDKError{Message: "stream failed without detail"}}
			}
			sa.Process(event)
		}
	}
}
