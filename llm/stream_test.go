package llm

import (
	"context"
	"testing"
	"time"
)

func TestStreamAccumulatorText(t *testing.T) {
	acc := NewStreamAccumulator("test", "test-model")

	events := []StreamEvent{
		{Type: StreamStart},
		{Type: TextDelta, Delta: "Hello "},
		{Type: TextDelta, Delta: "world"},
		{Type: StreamFinish, FinishReason: FinishStop, Usage: &Usage{InputTokens: 5, OutputTokens: 10, TotalTokens: 15}},
	}
	for _, e := range events {
		acc.Process(e)
	}

	resp := acc.Response()
	if resp.Text != "Hello world" {
		t.Errorf("expected accumulated text %q, got %q", "Hello world", resp.Text)
	}
	if resp.FinishReason != FinishStop {
		t.Errorf("expected finish reason %q, got %q", FinishStop, resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("expected total_tokens 15, got %d", resp.Usage.TotalTokens)
	}
}

func TestStreamAccumulatorToolCallFragments(t *testing.T) {
	acc := NewStreamAccumulator("test", "test-model")

	// Arguments split across fragments; only the assembled whole is
	// valid JSON.
	events := []StreamEvent{
		{Type: StreamStart},
		{Type: ToolCallStart, ToolCallID: "call_1", ToolName: "get_weather", ArgsDelta: `{"ci`},
		{Type: ToolCallDelta, ToolCallID: "call_1", ArgsDelta: `ty":"`},
		{Type: ToolCallDelta, ToolCallID: "call_1", ArgsDelta: `SF"}`},
		{Type: ToolCallEnd, ToolCallID: "call_1"},
		{Type: StreamFinish, FinishReason: FinishToolCalls},
	}
	for _, e := range events {
		acc.Process(e)
	}

	resp := acc.Response()
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(resp.ToolCalls))
	}
	tc := resp.ToolCalls[0]
	if tc.ID != "call_1" || tc.Name != "get_weather" {
		t.Errorf("unexpected tool call identity: %+v", tc)
	}
	if string(tc.Arguments) != `{"city":"SF"}` {
		t.Errorf("expected assembled arguments, got %s", tc.Arguments)
	}
	if resp.Text != "" {
		t.Errorf("expected no text alongside tool calls, got %q", resp.Text)
	}
}

func TestStreamAccumulatorInterleavedCalls(t *testing.T) {
	acc := NewStreamAccumulator("test", "test-model")

	events := []StreamEvent{
		{Type: ToolCallStart, ToolCallID: "call_a", ToolName: "first", ArgsDelta: `{"n":`},
		{Type: ToolCallStart, ToolCallID: "call_b", ToolName: "second", ArgsDelta: `{"m":`},
		{Type: ToolCallDelta, ToolCallID: "call_b", ArgsDelta: `2}`},
		{Type: ToolCallDelta, ToolCallID: "call_a", ArgsDelta: `1}`},
		{Type: ToolCallEnd, ToolCallID: "call_a"},
		{Type: ToolCallEnd, ToolCallID: "call_b"},
		{Type: StreamFinish, FinishReason: FinishToolCalls},
	}
	for _, e := range events {
		acc.Process(e)
	}

	resp := acc.Response()
	if len(resp.ToolCalls) != 2 {
		t.Fatalf("expected 2 tool calls, got %d", len(resp.ToolCalls))
	}
	// Order follows first appearance in the stream.
	if resp.ToolCalls[0].ID != "call_a" || resp.ToolCalls[1].ID != "call_b" {
		t.Errorf("tool calls out of order: %s, %s", resp.ToolCalls[0].ID, resp.ToolCalls[1].ID)
	}
	if string(resp.ToolCalls[0].Arguments) != `{"n":1}` {
		t.Errorf("call_a arguments wrong: %s", resp.ToolCalls[0].Arguments)
	}
	if string(resp.ToolCalls[1].Arguments) != `{"m":2}` {
		t.Errorf("call_b arguments wrong: %s", resp.ToolCalls[1].Arguments)
	}
}

func TestStreamAccumulatorInvalidArgs(t *testing.T) {
	acc := NewStreamAccumulator("test", "test-model")
	acc.Process(StreamEvent{Type: ToolCallStart, ToolCallID: "call_1", ToolName: "broken", ArgsDelta: `{"unterminated`})
	acc.Process(StreamEvent{Type: ToolCallEnd, ToolCallID: "call_1"})

	resp := acc.Response()
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(resp.ToolCalls))
	}
	if string(resp.ToolCalls[0].Arguments) != "{}" {
		t.Errorf("expected invalid args to degrade to {}, got %s", resp.ToolCalls[0].Arguments)
	}
}

func TestAggregate(t *testing.T) {
	ch := make(chan StreamEvent, 8)
	ch <- StreamEvent{Type: StreamStart}
	ch <- StreamEvent{Type: TextDelta, Delta: "done"}
	ch <- StreamEvent{Type: StreamFinish, FinishReason: FinishStop}
	close(ch)

	resp, err := Aggregate(context.Background(), "test", "test-model", ch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "done" {
		t.Errorf("expected %q, got %q", "done", resp.Text)
	}
	if resp.Provider != "test" || resp.Model != "test-model" {
		t.Errorf("unexpected identity: %s/%s", resp.Provider, resp.Model)
	}
}

func TestAggregateMidStreamError(t *testing.T) {
	ch := make(chan StreamEvent, 8)
	ch <- StreamEvent{Type: TextDelta, Delta: "partial"}
	ch <- StreamEvent{Type: StreamError, Err: &ServerError{ProviderError: ProviderError{
		SDKError: SDKError{Message: "upstream died"}, Retryable: true,
	}}}
	close(ch)

	_, err := Aggregate(context.Background(), "test", "test-model", ch)
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(*ServerError); !ok {
		t.Errorf("expected ServerError, got %T", err)
	}
}

func TestAggregateCancelled(t *testing.T) {
	ch := make(chan StreamEvent) // never written, never closed

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := Aggregate(ctx, "test", "test-model", ch)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsAbort(err) {
		t.Errorf("expected AbortError, got %T", err)
	}
}
