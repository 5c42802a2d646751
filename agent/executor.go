package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/runloop-dev/runloop/llm"
)

// ToolResult is the outcome of dispatching one tool call.
type ToolResult struct {
	CallID  string
	Name    string
	Content string
	IsError bool
	// Fatal marks a failure of a fatal-on-error tool; the loop
	// terminates the run instead of feeding the error back to the model.
	Fatal bool
	Err   error
}

// Message renders the result as the tool-result message appended to the
// store.
func (r ToolResult) Message() llm.Message {
	return llm.ToolResultMessage(r.CallID, r.Content, r.IsError)
}

// Execute dispatches one tool call against the snapshot: lookup,
// argument validation, then invocation under the per-call timeout.
// Lookup and validation failures are recovered as error-flagged results
// the model can react to; only a fatal-on-error tool's failure is
// marked Fatal.
func (s *Snapshot) Execute(ctx context.Context, call llm.ToolCall, timeout time.Duration) ToolResult {
	spec, ok := s.Get(call.Name)
	if !ok {
		err := &UnknownToolError{Name: call.Name}
		return ToolResult{CallID: call.ID, Name: call.Name, Content: err.Error(), IsError: true, Err: err}
	}

	var args map[string]any
	if len(call.Arguments) > 0 {
		if uerr := json.Unmarshal(call.Arguments, &args); uerr != nil {
			err := &ArgumentValidationError{Tool: call.Name, Reason: "arguments are not a JSON object"}
			return ToolResult{CallID: call.ID, Name: call.Name, Content: err.Error(), IsError: true, Err: err}
		}
	}
	if args == nil {
		args = map[string]any{}
	}
	if verr := spec.Schema.ValidateArgs(args); verr != nil {
		err := &ArgumentValidationError{Tool: call.Name, Reason: verr.Error()}
		return ToolResult{CallID: call.ID, Name: call.Name, Content: err.Error(), IsError: true, Err: err}
	}

	content, runErr := runWithTimeout(ctx, spec, args, timeout)
	if runErr != nil {
		result := ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: runErr.Error(),
			IsError: true,
			Fatal:   spec.FatalOnError,
			Err:     runErr,
		}
		return result
	}

	return ToolResult{CallID: call.ID, Name: call.Name, Content: content}
}

// runWithTimeout invokes the tool on its own goroutine so a hung tool
// cannot wedge the loop. Panics inside the tool are recovered into a
// ToolExecutionError.
func runWithTimeout(ctx context.Context, spec ToolSpec, args map[string]any, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		content string
		err     error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: &ToolExecutionError{Tool: spec.Name, Cause: fmt.Errorf("panic: %v", r)}}
			}
		}()
		content, err := spec.Run(ctx, args)
		if err != nil {
			done <- outcome{err: &ToolExecutionError{Tool: spec.Name, Cause: err}}
			return
		}
		done <- outcome{content: content}
	}()

	select {
	case out := <-done:
		return out.content, out.err
	case <-ctx.Done():
		// The tool goroutine is asked to stop via ctx but may still be
		// running; its side effects are not rolled back.
		if ctx.Err() == context.DeadlineExceeded {
			return "", &ToolExecutionError{Tool: spec.Name, TimedOut: true, Cause: ctx.Err()}
		}
		return "", &ToolExecutionError{Tool: spec.Name, Cause: ctx.Err()}
	}
}
