package agent

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/runloop-dev/runloop/llm"
)

func assistantCall(name, args string) llm.Message {
	return llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{
		{ID: "call", Name: name, Arguments: json.RawMessage(args)},
	}}
}

func TestDetectRepeatSingleCall(t *testing.T) {
	var msgs []llm.Message
	for i := 0; i < 4; i++ {
		msgs = append(msgs, assistantCall("get_weather", `{"city":"Paris"}`))
	}
	if !DetectRepeat(msgs, 4) {
		t.Error("four identical calls should trip the detector")
	}
}

func TestDetectRepeatAlternatingPair(t *testing.T) {
	var msgs []llm.Message
	for i := 0; i < 3; i++ {
		msgs = append(msgs, assistantCall("read_file", `{"path":"a.txt"}`))
		msgs = append(msgs, assistantCall("read_file", `{"path":"b.txt"}`))
	}
	if !DetectRepeat(msgs, 6) {
		t.Error("an alternating pair should trip the detector")
	}
}

func TestDetectRepeatTriplePattern(t *testing.T) {
	var msgs []llm.Message
	for i := 0; i < 2; i++ {
		msgs = append(msgs, assistantCall("a", `{}`))
		msgs = append(msgs, assistantCall("b", `{}`))
		msgs = append(msgs, assistantCall("c", `{}`))
	}
	if !DetectRepeat(msgs, 6) {
		t.Error("a repeating triple should trip the detector")
	}
}

func TestDetectRepeatDistinctCalls(t *testing.T) {
	var msgs []llm.Message
	for i := 0; i < 6; i++ {
		msgs = append(msgs, assistantCall("read_file", fmt.Sprintf(`{"path":"file%d.txt"}`, i)))
	}
	if DetectRepeat(msgs, 6) {
		t.Error("distinct arguments must not trip the detector")
	}
}

func TestDetectRepeatSameNameDifferentArgs(t *testing.T) {
	msgs := []llm.Message{
		assistantCall("get_weather", `{"city":"Paris"}`),
		assistantCall("get_weather", `{"city":"Oslo"}`),
		assistantCall("get_weather", `{"city":"Paris"}`),
		assistantCall("get_weather", `{"city":"Rome"}`),
	}
	if DetectRepeat(msgs, 4) {
		t.Error("same tool with varying arguments is progress, not a loop")
	}
}

func TestDetectRepeatInsufficientHistory(t *testing.T) {
	msgs := []llm.Message{
		assistantCall("get_weather", `{"city":"Paris"}`),
		assistantCall("get_weather", `{"city":"Paris"}`),
	}
	if DetectRepeat(msgs, 4) {
		t.Error("fewer calls than the window must not trip the detector")
	}
}

func TestDetectRepeatIgnoresOlderHistory(t *testing.T) {
	// Old repetition followed by fresh distinct work: the window only
	// sees the recent calls.
	var msgs []llm.Message
	for i := 0; i < 4; i++ {
		msgs = append(msgs, assistantCall("get_weather", `{"city":"Paris"}`))
	}
	for i := 0; i < 4; i++ {
		msgs = append(msgs, assistantCall("read_file", fmt.Sprintf(`{"path":"f%d"}`, i)))
	}
	if DetectRepeat(msgs, 4) {
		t.Error("detector must only consider the most recent window")
	}
}

func TestDetectRepeatMultipleCallsPerMessage(t *testing.T) {
	msgs := []llm.Message{
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{
			{ID: "c1", Name: "x", Arguments: json.RawMessage(`{}`)},
			{ID: "c2", Name: "x", Arguments: json.RawMessage(`{}`)},
		}},
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{
			{ID: "c3", Name: "x", Arguments: json.RawMessage(`{}`)},
			{ID: "c4", Name: "x", Arguments: json.RawMessage(`{}`)},
		}},
	}
	if !DetectRepeat(msgs, 4) {
		t.Error("repetition across parallel calls should trip the detector")
	}
}
