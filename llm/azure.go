package llm

import (
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

// AzureConfig holds configuration for an Azure OpenAI deployment.
// Requests address the deployment by its name rather than the base
// model identifier, so Model on outgoing requests should carry the
// deployment name.
type AzureConfig struct {
	Endpoint   string // e.g. https://my-resource.openai.azure.com
	APIKey     string
	APIVersion string // e.g. 2025-01-01-preview
}

const defaultAzureAPIVersion = "2025-01-01-preview"

// NewAzureAdapter creates an adapter for an Azure-hosted OpenAI
// deployment. Azure speaks the same chat-completions wire format, so
// the adapter body is shared with the hosted OpenAI one; only the
// endpoint, auth scheme, and API versioning differ.
func NewAzureAdapter(cfg AzureConfig) (*ChatAdapter, error) {
	if cfg.Endpoint == "" {
		return nil, &ConfigurationError{SDKError: SDKError{Message: "azure: missing endpoint"}}
	}
	if cfg.APIKey == "" {
		return nil, &ConfigurationError{SDKError: SDKError{Message: "azure: missing API key"}}
	}
	version := cfg.APIVersion
	if version == "" {
		version = defaultAzureAPIVersion
	}
	opts := []option.RequestOption{
		azure.WithEndpoint(cfg.Endpoint, version),
		azure.WithAPIKey(cfg.APIKey),
	}
	return newChatAdapter("azure", opts...), nil
}
