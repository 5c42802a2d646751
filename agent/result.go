package agent

import (
	"github.com/runloop-dev/runloop/llm"
)

// StopReason explains why a run terminated.
type StopReason string

const (
	StopCompleted     StopReason = "completed"
	StopMaxTurns      StopReason = "max_turns"
	StopMaxRetries    StopReason = "max_retries_exceeded"
	StopToolFatal     StopReason = "tool_fatal_error"
	StopCancelled     StopReason = "cancelled"
	StopProviderError StopReason = "provider_error"
)

// RunResult is the immutable summary produced when a run terminates.
// Every run, including failed ones, yields a RunResult with a stop
// reason; Err carries the terminal error detail when the stop reason is
// not completed.
type RunResult struct {
	RunID      string        `json:"run_id"`
	FinalText  string        `json:"final_text,omitempty"`
	Messages   []llm.Message `json:"messages"`
	StopReason StopReason    `json:"stop_reason"`
	Err        error         `json:"-"`
	Stats      RunStats      `json:"stats"`
}

// Usage returns the cumulative token usage across every model call made
// during the run.
func (r *RunResult) Usage() llm.Usage {
	return r.Stats.Usage
}

// assembleResult copies the transcript out of the store and fills in
// the terminal fields. FinalText is populated only for completed runs:
// it is the text of the last assistant message.
func assembleResult(runID string, store *Store, reason StopReason, err error, stats RunStats) *RunResult {
	messages := store.Messages()

	finalText := ""
	if reason == StopCompleted {
		for i := len(messages) - 1; i >= 0; i-- {
			if messages[i].Role == llm.RoleAssistant {
				finalText = messages[i].Content
				break
			}
		}
	}

	return &RunResult{
		RunID:      runID,
		FinalText:  finalText,
		Messages:   messages,
		StopReason: reason,
		Err:        err,
		Stats:      stats,
	}
}
