package agent

import "fmt"

// UnknownToolError is produced when a model requests a tool absent from
// the run's registry snapshot. It is recovered into the conversation as
// an error-flagged tool result so the model can react.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// ArgumentValidationError is produced when a tool call's arguments fail
// schema validation or are not a JSON object. Recovered into the
// conversation like UnknownToolError.
type ArgumentValidationError struct {
	Tool   string
	Reason string
}

func (e *ArgumentValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Reason)
}

// ToolExecutionError wraps a failure raised by the tool itself: a
// returned error, a panic, or a per-call timeout. Non-fatal by default;
// a tool registered fatal-on-error turns it into run termination.
type ToolExecutionError struct {
	Tool     string
	TimedOut bool
	Cause    error
}

func (e *ToolExecutionError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("tool %s timed out", e.Tool)
	}
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Cause)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Cause
}

// ErrOrphanToolResult is returned by the Store when a tool-result
// message does not answer a pending tool call from the latest assistant
// message.
type ErrOrphanToolResult struct {
	ToolCallID string
}

func (e *ErrOrphanToolResult) Error() string {
	return fmt.Sprintf("tool result %q does not match any pending tool call", e.ToolCallID)
}
