package llm

import "context"

// ProviderAdapter is the interface every backend family implements. An
// adapter is a pure translation layer between the backend's native wire
// format and the normalized Request/Response types; it holds no loop
// logic and no per-call state.
type ProviderAdapter interface {
	// Name returns the provider identifier (e.g. "openai", "azure", "ollama").
	Name() string

	// Complete sends a blocking request and returns the full response.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Stream sends a request and returns a channel of incremental
	// fragments. The channel is closed when the stream ends; a
	// StreamError event carries any mid-stream failure.
	Stream(ctx context.Context, req Request) (<-chan StreamEvent, error)
}

// Closer is implemented by adapters that hold releasable resources.
type Closer interface {
	Close() error
}
