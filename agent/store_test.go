package agent

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/runloop-dev/runloop/llm"
)

func TestStoreAppendAndRead(t *testing.T) {
	store := NewStore()

	msgs := []llm.Message{
		llm.SystemMessage("be terse"),
		llm.UserMessage("hello"),
		llm.AssistantMessage("hi"),
	}
	for _, m := range msgs {
		if err := store.Append(m); err != nil {
			t.Fatalf("unexpected append error: %v", err)
		}
	}
	if store.Len() != 3 {
		t.Errorf("expected 3 messages, got %d", store.Len())
	}

	got := store.Messages()
	for i := range msgs {
		if got[i].Role != msgs[i].Role || got[i].Content != msgs[i].Content {
			t.Errorf("message %d mismatch: %+v", i, got[i])
		}
	}
}

func TestStoreMessagesReturnsCopy(t *testing.T) {
	store := NewStore()
	_ = store.Append(llm.UserMessage("original"))

	snapshot := store.Messages()
	snapshot[0].Content = "mutated"

	if store.Messages()[0].Content != "original" {
		t.Error("mutating the returned slice must not affect the store")
	}
}

func TestStoreRejectsOrphanToolResult(t *testing.T) {
	store := NewStore()
	_ = store.Append(llm.UserMessage("hello"))

	err := store.Append(llm.ToolResultMessage("call_ghost", "output", false))
	if err == nil {
		t.Fatal("expected rejection of orphan tool result")
	}
	var orphan *ErrOrphanToolResult
	if !errors.As(err, &orphan) {
		t.Fatalf("expected ErrOrphanToolResult, got %T", err)
	}
	if orphan.ToolCallID != "call_ghost" {
		t.Errorf("unexpected call ID %q", orphan.ToolCallID)
	}
	if store.Len() != 1 {
		t.Errorf("rejected message must not be appended, store has %d", store.Len())
	}
}

func TestStorePendingToolCallLifecycle(t *testing.T) {
	store := NewStore()
	_ = store.Append(llm.UserMessage("hello"))
	_ = store.Append(llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{
		{ID: "call_1", Name: "a", Arguments: json.RawMessage(`{}`)},
		{ID: "call_2", Name: "b", Arguments: json.RawMessage(`{}`)},
	}})

	if store.PendingToolCalls() != 2 {
		t.Fatalf("expected 2 pending, got %d", store.PendingToolCalls())
	}
	if err := store.Append(llm.ToolResultMessage("call_1", "ok", false)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.PendingToolCalls() != 1 {
		t.Errorf("expected 1 pending, got %d", store.PendingToolCalls())
	}

	// A second answer to the same call is an orphan.
	if err := store.Append(llm.ToolResultMessage("call_1", "again", false)); err == nil {
		t.Error("expected rejection of duplicate tool result")
	}

	if err := store.Append(llm.ToolResultMessage("call_2", "ok", false)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.PendingToolCalls() != 0 {
		t.Errorf("expected 0 pending, got %d", store.PendingToolCalls())
	}
}

func TestStoreNewAssistantMessageResetsPending(t *testing.T) {
	store := NewStore()
	_ = store.Append(llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{
		{ID: "call_old", Name: "a", Arguments: json.RawMessage(`{}`)},
	}})
	_ = store.Append(llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{
		{ID: "call_new", Name: "b", Arguments: json.RawMessage(`{}`)},
	}})

	if err := store.Append(llm.ToolResultMessage("call_old", "late", false)); err == nil {
		t.Error("result for a superseded assistant message must be rejected")
	}
	if err := store.Append(llm.ToolResultMessage("call_new", "ok", false)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
