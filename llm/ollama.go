package llm

import (
	"strings"

	"github.com/openai/openai-go/option"
)

// OllamaConfig holds configuration for a local Ollama server reached
// through its OpenAI-compatible endpoint.
type OllamaConfig struct {
	BaseURL string // defaults to http://localhost:11434
}

const defaultOllamaBaseURL = "http://localhost:11434"

// NewOllamaAdapter creates an adapter for a local Ollama server. Ollama
// exposes the chat-completions format under /v1 and ignores the API
// key, but the SDK requires one to be set.
func NewOllamaAdapter(cfg OllamaConfig) (*ChatAdapter, error) {
	base := cfg.BaseURL
	if base == "" {
		base = defaultOllamaBaseURL
	}
	base = strings.TrimRight(base, "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	opts := []option.RequestOption{
		option.WithBaseURL(base),
		option.WithAPIKey("ollama"),
	}
	return newChatAdapter("ollama", opts...), nil
}
