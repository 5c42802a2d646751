package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/runloop-dev/runloop/llm"
)

// RunConfig holds configuration for one run. Start from
// DefaultRunConfig and override; MaxTurns and MaxRetries must be
// positive, zero is rejected before the run starts.
type RunConfig struct {
	// Model is the model identifier (or Azure deployment name) sent on
	// every provider request.
	Model string `json:"model"`

	// SystemPrompt, when set, seeds the conversation ahead of the
	// caller's prompt.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// MaxTurns bounds how many tool-dispatch cycles a run may perform.
	MaxTurns int `json:"max_turns"`

	// MaxRetries bounds provider attempts per turn, counting the first
	// call: MaxRetries of 3 means at most 3 calls before the run stops
	// with max_retries_exceeded.
	MaxRetries int `json:"max_retries"`

	// RetryBackoff is the base delay of the exponential backoff between
	// provider attempts.
	RetryBackoff time.Duration `json:"retry_backoff"`

	// Streaming selects the adapter's streaming path; fragments are
	// aggregated into a complete response before the loop proceeds.
	Streaming bool `json:"streaming"`

	// PerToolTimeout bounds each tool invocation. Zero means no bound.
	PerToolTimeout time.Duration `json:"per_tool_timeout"`

	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`

	// DetectRepeats injects a steering message when the recent tool
	// calls form a repeating pattern.
	DetectRepeats bool `json:"detect_repeats"`
	RepeatWindow  int  `json:"repeat_window"`

	// Per-tool output limits; nil falls back to the package defaults.
	ToolCharLimits map[string]int `json:"tool_char_limits,omitempty"`
	ToolLineLimits map[string]int `json:"tool_line_limits,omitempty"`

	EventBuffer int `json:"event_buffer,omitempty"`
}

// DefaultRunConfig returns the default run configuration.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		MaxTurns:       50,
		MaxRetries:     3,
		RetryBackoff:   time.Second,
		PerToolTimeout: 60 * time.Second,
		DetectRepeats:  true,
		RepeatWindow:   10,
	}
}

func (c RunConfig) validate() error {
	if c.Model == "" {
		return &llm.ConfigurationError{SDKError: llm.SDKError{Message: "model is required"}}
	}
	if c.MaxTurns <= 0 {
		return &llm.ConfigurationError{SDKError: llm.SDKError{Message: "max_turns must be a positive integer"}}
	}
	if c.MaxRetries <= 0 {
		return &llm.ConfigurationError{SDKError: llm.SDKError{Message: "max_retries must be a positive integer"}}
	}
	if c.RetryBackoff < 0 {
		return &llm.ConfigurationError{SDKError: llm.SDKError{Message: "retry_backoff must not be negative"}}
	}
	if c.DetectRepeats && c.RepeatWindow <= 0 {
		return &llm.ConfigurationError{SDKError: llm.SDKError{Message: "repeat_window must be positive when repeat detection is on"}}
	}
	return nil
}

// Loop drives one run: it owns the message store and the loop state,
// holds a frozen tool snapshot, and walks the conversation through the
// provider adapter until a terminal condition. A Loop is single-use.
type Loop struct {
	runID   string
	adapter llm.ProviderAdapter
	tools   *Snapshot
	cfg     RunConfig
	emitter *EventEmitter
}

// NewLoop creates a loop for one run. The registry snapshot is taken
// here, so registrations after this point do not affect the run.
// Configuration is validated up front; a bad config never reaches the
// state machine.
func NewLoop(adapter llm.ProviderAdapter, registry *Registry, cfg RunConfig) (*Loop, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if adapter == nil {
		return nil, &llm.ConfigurationError{SDKError: llm.SDKError{Message: "provider adapter is required"}}
	}
	if registry == nil {
		registry = NewRegistry()
	}
	runID := uuid.New().String()
	return &Loop{
		runID:   runID,
		adapter: adapter,
		tools:   registry.Snapshot(),
		cfg:     cfg,
		emitter: NewEventEmitter(runID, cfg.EventBuffer),
	}, nil
}

// ID returns the run identifier.
func (l *Loop) ID() string { return l.runID }

// Events returns the event channel for the host application. The
// channel is closed when the run ends.
func (l *Loop) Events() <-chan Event {
	return l.emitter.Events()
}

// Run executes the loop to completion. Every terminal outcome is
// reported through the RunResult's stop reason, with the terminal error
// detail in RunResult.Err; the error return is always nil once the run
// has started.
func (l *Loop) Run(ctx context.Context, prompt string) (*RunResult, error) {
	store := NewStore()
	tracker := newStatsTracker()

	l.emitter.Emit(EventRunStart, map[string]any{
		"model": l.cfg.Model,
		"tools": l.tools.Len(),
	})

	if l.cfg.SystemPrompt != "" {
		_ = store.Append(llm.SystemMessage(l.cfg.SystemPrompt))
	}
	_ = store.Append(llm.UserMessage(prompt))

	reason, err := l.drive(ctx, store, tracker)

	result := assembleResult(l.runID, store, reason, err, tracker.snapshot())
	data := map[string]any{"stop_reason": string(reason)}
	if err != nil {
		data["error"] = err.Error()
		l.emitter.Emit(EventError, map[string]any{"error": err.Error()})
	}
	l.emitter.Emit(EventRunEnd, data)
	l.emitter.Close()
	return result, nil
}

// drive is the state machine: AwaitingModel and ToolDispatch alternate
// until a terminal condition. Turns count completed tool-dispatch
// cycles; the bound is checked before each model call so in-flight work
// always finishes.
func (l *Loop) drive(ctx context.Context, store *Store, tracker *statsTracker) (StopReason, error) {
	for turn := 0; ; {
		if ctx.Err() != nil {
			return StopCancelled, ctx.Err()
		}
		if turn >= l.cfg.MaxTurns {
			return StopMaxTurns, nil
		}

		resp, err := l.callModel(ctx, store, tracker)
		if err != nil {
			switch {
			case llm.IsAbort(err) || ctx.Err() != nil:
				return StopCancelled, err
			case llm.IsRetryable(err):
				return StopMaxRetries, err
			default:
				return StopProviderError, err
			}
		}

		model := resp.Model
		if model == "" {
			model = l.cfg.Model
		}
		tracker.recordModelCall(model, resp.Usage)

		if !resp.HasToolCalls() {
			_ = store.Append(llm.AssistantMessage(resp.Text))
			return StopCompleted, nil
		}

		_ = store.Append(llm.Message{Role: llm.RoleAssistant, ToolCalls: resp.ToolCalls})

		results := l.dispatchTools(ctx, resp.ToolCalls)

		// Append every collected result before acting on any failure, so
		// each tool call has its answering result even on termination.
		var fatal *ToolResult
		for i := range results {
			res := results[i]
			tracker.recordToolCall(res.IsError)
			msg := res.Message()
			msg.Content = TruncateToolOutput(msg.Content, res.Name, l.cfg.ToolCharLimits, l.cfg.ToolLineLimits)
			_ = store.Append(msg)
			if res.Fatal && fatal == nil {
				fatal = &results[i]
			}
		}

		if ctx.Err() != nil {
			return StopCancelled, ctx.Err()
		}
		if fatal != nil {
			return StopToolFatal, fatal.Err
		}

		if l.cfg.DetectRepeats && DetectRepeat(store.Messages(), l.cfg.RepeatWindow) {
			warning := fmt.Sprintf("The last %d tool calls follow a repeating pattern. Try a different approach.", l.cfg.RepeatWindow)
			_ = store.Append(llm.UserMessage(warning))
			l.emitter.Emit(EventRepeatWarning, map[string]any{"message": warning})
		}

		turn++
		tracker.recordTurn()
	}
}

// callModel performs one AwaitingModel phase: build the request from
// the store and the tool snapshot, call the adapter under the retry
// policy, and validate the response against the normalized contract.
func (l *Loop) callModel(ctx context.Context, store *Store, tracker *statsTracker) (*llm.Response, error) {
	req := llm.Request{
		Model:       l.cfg.Model,
		Messages:    store.Messages(),
		Tools:       l.tools.Definitions(),
		Provider:    l.adapter.Name(),
		Temperature: l.cfg.Temperature,
		MaxTokens:   l.cfg.MaxTokens,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	policy := llm.RetryPolicy{
		MaxAttempts:       l.cfg.MaxRetries,
		BaseDelay:         l.cfg.RetryBackoff,
		MaxDelay:          60 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
		OnRetry: func(err error, attempt int, delay time.Duration) {
			tracker.recordRetry()
			l.emitter.Emit(EventModelRetry, map[string]any{
				"attempt": attempt,
				"delay":   delay.String(),
				"error":   err.Error(),
			})
		},
	}

	l.emitter.Emit(EventModelCallStart, map[string]any{"messages": store.Len()})

	resp, err := llm.Retry(ctx, policy, func(ctx context.Context) (*llm.Response, error) {
		var resp *llm.Response
		var err error
		if l.cfg.Streaming {
			resp, err = l.streamModel(ctx, req)
		} else {
			resp, err = l.adapter.Complete(ctx, req)
		}
		if err != nil {
			return nil, err
		}
		if verr := resp.Validate(); verr != nil {
			return nil, verr
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	l.emitter.Emit(EventModelCallEnd, map[string]any{
		"finish_reason": resp.FinishReason,
		"tool_calls":    len(resp.ToolCalls),
	})
	return resp, nil
}

// streamModel consumes the adapter's fragment stream, forwarding text
// deltas to the event channel and buffering tool-call argument
// fragments until the stream marks them complete.
func (l *Loop) streamModel(ctx context.Context, req llm.Request) (*llm.Response, error) {
	events, err := l.adapter.Stream(ctx, req)
	if err != nil {
		return nil, err
	}

	sa := llm.NewStreamAccumulator(l.adapter.Name(), req.Model)
	for {
		select {
		case <-ctx.Done():
			return nil, &llm.AbortError{SDKError: llm.SDKError{Message: "cancelled mid-stream", Cause: ctx.Err()}}
		case event, ok := <-events:
			if !ok {
				return sa.Response(), nil
			}
			if event.Type == llm.StreamError {
				return nil, event.Err
			}
			if event.Type == llm.TextDelta {
				l.emitter.Emit(EventTextDelta, map[string]any{"delta": event.Delta})
			}
			sa.Process(event)
		}
	}
}

// dispatchTools runs one ToolDispatch phase. Calls within a turn are
// independent and execute concurrently; results land in request order
// and the join barrier holds until every call has completed or timed
// out.
func (l *Loop) dispatchTools(ctx context.Context, calls []llm.ToolCall) []ToolResult {
	results := make([]ToolResult, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(idx int, call llm.ToolCall) {
			defer wg.Done()
			l.emitter.Emit(EventToolCallStart, map[string]any{
				"call_id":   call.ID,
				"tool_name": call.Name,
			})
			res := l.tools.Execute(ctx, call, l.cfg.PerToolTimeout)
			data := map[string]any{"call_id": call.ID, "tool_name": call.Name}
			if res.IsError {
				data["error"] = res.Content
			} else {
				// Full untruncated output; the store gets the truncated form.
				data["output"] = res.Content
			}
			l.emitter.Emit(EventToolCallEnd, data)
			results[idx] = res
		}(i, call)
	}
	wg.Wait()

	return results
}

// Run is the package-level convenience entry point: one prompt, one
// registry, one adapter, one result.
func Run(ctx context.Context, prompt string, tools *Registry, adapter llm.ProviderAdapter, cfg RunConfig) (*RunResult, error) {
	loop, err := NewLoop(adapter, tools, cfg)
	if err != nil {
		return nil, err
	}
	return loop.Run(ctx, prompt)
}
