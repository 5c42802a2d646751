package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/runloop-dev/runloop/llm"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "")
	v.SetDefault("model", "gpt-5.2")
	v.SetDefault("max_turns", 50)
	v.SetDefault("max_retries", 3)
	v.SetDefault("per_tool_timeout_ms", 60000)
	v.SetDefault("exec.default_timeout_ms", 30000)
	v.SetDefault("exec.max_timeout_ms", 600000)
	v.SetDefault("azure.api_version", "")
	v.SetDefault("ollama.base_url", "")
}

// setupEnv binds RUNLOOP_-prefixed environment variables, with dots
// mapped to underscores: openai.api_key reads RUNLOOP_OPENAI_API_KEY.
func setupEnv(v *viper.Viper) {
	v.SetEnvPrefix("RUNLOOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// apiKeyFor resolves a provider's API key: the viper key first
// (config file or RUNLOOP_ env), then the provider's conventional
// environment variable.
func apiKeyFor(v *viper.Viper, viperKey, envVar string) string {
	if key := v.GetString(viperKey); key != "" {
		return key
	}
	return os.Getenv(envVar)
}

// newAdapter constructs the provider adapter named by the configuration.
// An empty provider resolves through the model catalog; unknown models
// fall back to the gollm adapter so providers without a dedicated
// adapter still work.
func newAdapter(v *viper.Viper, provider, model string) (llm.ProviderAdapter, error) {
	if provider == "" {
		if info := llm.GetModelInfo(model); info != nil {
			provider = info.Provider
		} else {
			return nil, &llm.ConfigurationError{SDKError: llm.SDKError{
				Message: fmt.Sprintf("model %q is not in the catalog; set --provider explicitly", model),
			}}
		}
	}

	switch provider {
	case "openai":
		return llm.NewOpenAIAdapter(llm.OpenAIConfig{
			APIKey:  apiKeyFor(v, "openai.api_key", "OPENAI_API_KEY"),
			BaseURL: v.GetString("openai.base_url"),
		})
	case "azure":
		return llm.NewAzureAdapter(llm.AzureConfig{
			Endpoint:   v.GetString("azure.endpoint"),
			APIKey:     apiKeyFor(v, "azure.api_key", "AZURE_OPENAI_API_KEY"),
			APIVersion: v.GetString("azure.api_version"),
		})
	case "ollama":
		return llm.NewOllamaAdapter(llm.OllamaConfig{
			BaseURL: v.GetString("ollama.base_url"),
		})
	default:
		envVar := strings.ToUpper(provider) + "_API_KEY"
		return llm.NewGollmAdapter(provider, model, apiKeyFor(v, provider+".api_key", envVar))
	}
}
