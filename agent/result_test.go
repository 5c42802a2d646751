package agent

import (
	"strings"
	"testing"
	"time"

	"github.com/runloop-dev/runloop/llm"
)

func TestAssembleResultFinalText(t *testing.T) {
	store := NewStore()
	_ = store.Append(llm.UserMessage("q"))
	_ = store.Append(llm.AssistantMessage("the answer"))

	result := assembleResult("run-1", store, StopCompleted, nil, RunStats{})
	if result.FinalText != "the answer" {
		t.Errorf("expected final text from last assistant message, got %q", result.FinalText)
	}
	if result.RunID != "run-1" {
		t.Errorf("unexpected run ID %q", result.RunID)
	}
}

func TestAssembleResultNoFinalTextWhenNotCompleted(t *testing.T) {
	store := NewStore()
	_ = store.Append(llm.UserMessage("q"))
	_ = store.Append(llm.AssistantMessage("partial progress"))

	for _, reason := range []StopReason{StopMaxTurns, StopMaxRetries, StopToolFatal, StopCancelled, StopProviderError} {
		result := assembleResult("run-1", store, reason, nil, RunStats{})
		if result.FinalText != "" {
			t.Errorf("%s: final text must be empty, got %q", reason, result.FinalText)
		}
	}
}

func TestRunStatsSummary(t *testing.T) {
	stats := RunStats{
		Turns: 2, ModelCalls: 3, Retries: 1, ToolCalls: 4, ToolErrors: 1,
		Usage:   llm.Usage{InputTokens: 1000, OutputTokens: 200},
		CostUSD: 0.0045,
		Duration: 1530 * time.Millisecond,
	}
	s := stats.Summary()
	for _, want := range []string{"2 turns", "3 model calls", "1 retries", "4 tool calls", "1 errors", "1000 in", "200 out", "$0.0045", "1.53s"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q: %s", want, s)
		}
	}
}

func TestStatsTrackerAccumulates(t *testing.T) {
	tr := newStatsTracker()
	tr.recordModelCall("gpt-5.2", llm.Usage{InputTokens: 1_000_000, OutputTokens: 0, TotalTokens: 1_000_000})
	tr.recordModelCall("gpt-5.2", llm.Usage{InputTokens: 0, OutputTokens: 1_000_000, TotalTokens: 1_000_000})
	tr.recordRetry()
	tr.recordToolCall(false)
	tr.recordToolCall(true)
	tr.recordTurn()

	stats := tr.snapshot()
	if stats.ModelCalls != 2 || stats.Retries != 1 || stats.ToolCalls != 2 || stats.ToolErrors != 1 || stats.Turns != 1 {
		t.Errorf("unexpected counters: %+v", stats)
	}
	if stats.Usage.TotalTokens != 2_000_000 {
		t.Errorf("expected 2M total tokens, got %d", stats.Usage.TotalTokens)
	}
	// gpt-5.2 prices at $2.50/M input + $10/M output.
	if stats.CostUSD < 12.49 || stats.CostUSD > 12.51 {
		t.Errorf("expected cost ~12.50, got %f", stats.CostUSD)
	}
	if stats.Duration <= 0 {
		t.Error("duration should be positive")
	}
}
