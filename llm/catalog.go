package llm

// ModelInfo describes a known model in the catalog.
type ModelInfo struct {
	ID                   string   `json:"id"`
	Provider             string   `json:"provider"`
	DisplayName          string   `json:"display_name"`
	ContextWindow        int      `json:"context_window"`
	MaxOutput            *int     `json:"max_output,omitempty"`
	SupportsTools        bool     `json:"supports_tools"`
	SupportsStreaming    bool     `json:"supports_streaming"`
	SupportsReasoning    bool     `json:"supports_reasoning"`
	InputCostPerMillion  *float64 `json:"input_cost_per_million,omitempty"`
	OutputCostPerMillion *float64 `json:"output_cost_per_million,omitempty"`
	Aliases              []string `json:"aliases,omitempty"`
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// Models is the built-in model catalog (August 2026). Ollama-served
// models carry no cost: they run locally.
var Models = []ModelInfo{
	// OpenAI
	{
		ID: "gpt-5.2", Provider: "openai", DisplayName: "GPT-5.2",
		ContextWindow: 1047576, MaxOutput: intPtr(32768),
		SupportsTools: true, SupportsStreaming: true, SupportsReasoning: true,
		InputCostPerMillion: floatPtr(2.50), OutputCostPerMillion: floatPtr(10.0),
		Aliases: []string{"gpt5"},
	},
	{
		ID: "gpt-5.2-mini", Provider: "openai", DisplayName: "GPT-5.2 Mini",
		ContextWindow: 1047576, MaxOutput: intPtr(16384),
		SupportsTools: true, SupportsStreaming: true, SupportsReasoning: true,
		InputCostPerMillion: floatPtr(0.75), OutputCostPerMillion: floatPtr(3.0),
		Aliases: []string{"gpt5-mini"},
	},
	{
		ID: "gpt-4.1", Provider: "openai", DisplayName: "GPT-4.1",
		ContextWindow: 1047576, MaxOutput: intPtr(32768),
		SupportsTools: true, SupportsStreaming: true,
		InputCostPerMillion: floatPtr(2.0), OutputCostPerMillion: floatPtr(8.0),
	},

	// Azure deployments mirror their OpenAI counterparts; pricing tracks
	// the deployment's base model.
	{
		ID: "azure/gpt-5.2", Provider: "azure", DisplayName: "GPT-5.2 (Azure)",
		ContextWindow: 1047576, MaxOutput: intPtr(32768),
		SupportsTools: true, SupportsStreaming: true, SupportsReasoning: true,
		InputCostPerMillion: floatPtr(2.50), OutputCostPerMillion: floatPtr(10.0),
	},
	{
		ID: "azure/gpt-4.1", Provider: "azure", DisplayName: "GPT-4.1 (Azure)",
		ContextWindow: 1047576, MaxOutput: intPtr(32768),
		SupportsTools: true, SupportsStreaming: true,
		InputCostPerMillion: floatPtr(2.0), OutputCostPerMillion: floatPtr(8.0),
	},

	// Ollama (local)
	{
		ID: "llama3.3", Provider: "ollama", DisplayName: "Llama 3.3 70B",
		ContextWindow: 131072, MaxOutput: intPtr(8192),
		SupportsTools: true, SupportsStreaming: true,
		Aliases: []string{"llama3"},
	},
	{
		ID: "qwen2.5-coder", Provider: "ollama", DisplayName: "Qwen 2.5 Coder 32B",
		ContextWindow: 131072, MaxOutput: intPtr(8192),
		SupportsTools: true, SupportsStreaming: true,
	},
}

// GetModelInfo returns the catalog entry for a model, or nil if unknown.
func GetModelInfo(modelID string) *ModelInfo {
	for i := range Models {
		if Models[i].ID == modelID {
			return &Models[i]
		}
		for _, alias := range Models[i].Aliases {
			if alias == modelID {
				return &Models[i]
			}
		}
	}
	return nil
}

// ListModels returns all known models, optionally filtered by provider.
func ListModels(provider string) []ModelInfo {
	if provider == "" {
		result := make([]ModelInfo, len(Models))
		copy(result, Models)
		return result
	}
	var result []ModelInfo
	for _, m := range Models {
		if m.Provider == provider {
			result = append(result, m)
		}
	}
	return result
}

// CostOf estimates the dollar cost of the given usage for a model.
// Unknown models and models without pricing cost zero.
func CostOf(modelID string, usage Usage) float64 {
	info := GetModelInfo(modelID)
	if info == nil {
		return 0
	}
	var cost float64
	if info.InputCostPerMillion != nil {
		cost += float64(usage.InputTokens) / 1e6 * *info.InputCostPerMillion
	}
	if info.OutputCostPerMillion != nil {
		cost += float64(usage.OutputTokens) / 1e6 * *info.OutputCostPerMillion
	}
	return cost
}
