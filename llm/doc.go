// Package llm is the provider layer of the loop engine: normalized wire
// types, a typed error taxonomy, retry with exponential backoff,
// streaming aggregation, and adapters for OpenAI-compatible, Azure, and
// Ollama backends.
//
// # Architecture
//
// The package follows a three-layer structure:
//
//   - Adapters: ProviderAdapter implementations translating between a
//     backend's native wire format and the normalized Request/Response
//     types (ChatAdapter for chat-completions backends, GollmAdapter
//     for everything else)
//   - Utilities: retry policy, error classification, stream aggregation
//   - Client: provider routing and middleware
//
// # Quick Start
//
//	adapter, _ := llm.NewOpenAIAdapter(llm.OpenAIConfig{APIKey: os.Getenv("OPENAI_API_KEY")})
//	client := llm.NewClient(llm.WithProvider(adapter))
//
//	resp, _ := client.Complete(ctx, llm.Request{
//	    Model:    "gpt-5.2",
//	    Messages: []llm.Message{llm.UserMessage("Hello")},
//	})
//	fmt.Println(resp.Text)
//
// # The normalized contract
//
// Every successful Response carries exactly one of final text or tool
// calls; Response.Validate enforces this and adapters are written to
// satisfy it. Streamed calls produce the same shape once aggregated:
//
//	events, _ := client.Stream(ctx, req)
//	resp, _ := llm.Aggregate(ctx, "openai", req.Model, events)
//
// # Errors and retry
//
// Adapter failures are classified into typed errors; IsRetryable
// separates transient failures (rate limits, 5xx, network) from fatal
// ones (auth, invalid request, context length). Retry wraps any call in
// the package's backoff policy:
//
//	resp, err := llm.Retry(ctx, llm.DefaultRetryPolicy(), func(ctx context.Context) (*llm.Response, error) {
//	    return client.Complete(ctx, req)
//	})
package llm
