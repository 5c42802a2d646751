package agent

import (
	"fmt"
	"sync"
	"time"

	"github.com/runloop-dev/runloop/llm"
)

// RunStats summarizes resource consumption for one run.
type RunStats struct {
	Turns      int           `json:"turns"`
	ModelCalls int           `json:"model_calls"`
	Retries    int           `json:"retries"`
	ToolCalls  int           `json:"tool_calls"`
	ToolErrors int           `json:"tool_errors"`
	Usage      llm.Usage     `json:"usage"`
	CostUSD    float64       `json:"cost_usd"`
	Duration   time.Duration `json:"duration"`
}

// Summary renders the stats as a one-line human-readable summary.
func (s RunStats) Summary() string {
	return fmt.Sprintf("%d turns, %d model calls (%d retries), %d tool calls (%d errors), %d in / %d out tokens, $%.4f, %s",
		s.Turns, s.ModelCalls, s.Retries, s.ToolCalls, s.ToolErrors,
		s.Usage.InputTokens, s.Usage.OutputTokens, s.CostUSD,
		s.Duration.Round(time.Millisecond))
}

// statsTracker accumulates RunStats while a loop runs. Tool dispatch is
// concurrent within a turn, so recording is locked.
type statsTracker struct {
	mu      sync.Mutex
	started time.Time
	stats   RunStats
}

func newStatsTracker() *statsTracker {
	return &statsTracker{started: time.Now()}
}

func (t *statsTracker) recordModelCall(model string, usage llm.Usage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.ModelCalls++
	t.stats.Usage = t.stats.Usage.Add(usage)
	t.stats.CostUSD += llm.CostOf(model, usage)
}

func (t *statsTracker) recordRetry() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.Retries++
}

func (t *statsTracker) recordToolCall(isError bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.ToolCalls++
	if isError {
		t.stats.ToolErrors++
	}
}

func (t *statsTracker) recordTurn() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.Turns++
}

func (t *statsTracker) snapshot() RunStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.stats
	s.Duration = time.Since(t.started)
	return s
}
