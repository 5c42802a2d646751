package llm

import (
	"encoding/json"
	"testing"
)

func TestRequestValidate(t *testing.T) {
	err := Request{Model: "m"}.Validate()
	if _, ok := err.(*InvalidRequestError); !ok {
		t.Errorf("empty conversation: expected InvalidRequestError, got %T", err)
	}

	err = Request{Model: "m", Messages: []Message{AssistantMessage("hi")}}.Validate()
	if _, ok := err.(*InvalidRequestError); !ok {
		t.Errorf("assistant-first conversation: expected InvalidRequestError, got %T", err)
	}

	for _, first := range []Message{SystemMessage("be brief"), UserMessage("hi")} {
		if err := (Request{Model: "m", Messages: []Message{first}}).Validate(); err != nil {
			t.Errorf("%s-first conversation: unexpected error %v", first.Role, err)
		}
	}
}

func TestResponseValidateExactlyOne(t *testing.T) {
	call := ToolCall{ID: "c1", Name: "t", Arguments: json.RawMessage(`{}`)}

	cases := []struct {
		name    string
		resp    Response
		wantErr bool
	}{
		{"text only", Response{Text: "done"}, false},
		{"tool calls only", Response{ToolCalls: []ToolCall{call}}, false},
		{"neither", Response{}, true},
		{"both", Response{Text: "done", ToolCalls: []ToolCall{call}}, true},
		{"distinct call IDs", Response{ToolCalls: []ToolCall{
			call,
			{ID: "c2", Name: "t", Arguments: json.RawMessage(`{}`)},
		}}, false},
		{"duplicate call IDs", Response{ToolCalls: []ToolCall{
			call,
			{ID: "c1", Name: "t", Arguments: json.RawMessage(`{"x":1}`)},
		}}, true},
	}
	for _, tc := range cases {
		err := tc.resp.Validate()
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if tc.wantErr {
			if _, ok := err.(*MalformedResponseError); !ok {
				t.Errorf("%s: expected MalformedResponseError, got %T", tc.name, err)
			}
		}
	}
}

func TestUsageAdd(t *testing.T) {
	a := Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15, CachedTokens: 2}
	b := Usage{InputTokens: 1, OutputTokens: 2, TotalTokens: 3, ReasoningTokens: 4}
	sum := a.Add(b)
	if sum.InputTokens != 11 || sum.OutputTokens != 7 || sum.TotalTokens != 18 {
		t.Errorf("unexpected sum: %+v", sum)
	}
	if sum.ReasoningTokens != 4 || sum.CachedTokens != 2 {
		t.Errorf("detail tokens lost: %+v", sum)
	}
}

func TestToolResultMessage(t *testing.T) {
	msg := ToolResultMessage("call_9", "output", true)
	if msg.Role != RoleTool || msg.ToolCallID != "call_9" || !msg.IsError {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestCatalogLookup(t *testing.T) {
	if info := GetModelInfo("gpt-5.2"); info == nil || info.Provider != "openai" {
		t.Errorf("expected gpt-5.2 in catalog under openai, got %+v", info)
	}
	if info := GetModelInfo("gpt5"); info == nil || info.ID != "gpt-5.2" {
		t.Error("expected alias lookup to resolve gpt5")
	}
	if GetModelInfo("no-such-model") != nil {
		t.Error("expected nil for unknown model")
	}
	if got := len(ListModels("ollama")); got != 2 {
		t.Errorf("expected 2 ollama models, got %d", got)
	}
}

func TestCostOf(t *testing.T) {
	usage := Usage{InputTokens: 1_000_000, OutputTokens: 500_000}
	got := CostOf("gpt-5.2", usage)
	want := 2.50 + 5.0
	if got != want {
		t.Errorf("expected cost %.2f, got %.2f", want, got)
	}
	if CostOf("llama3.3", usage) != 0 {
		t.Error("local models should cost zero")
	}
	if CostOf("no-such-model", usage) != 0 {
		t.Error("unknown models should cost zero")
	}
}
