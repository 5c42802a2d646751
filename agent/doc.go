// Package agent implements the loop engine: the state machine that
// turns a single prompt into a sequence of model calls, tool
// invocations, and result-feedback turns until a terminating condition.
//
// # Architecture
//
//   - Loop: the controller. Owns the per-run message Store and loop
//     state, holds a frozen tool Snapshot, and alternates between a
//     model call and a tool-dispatch phase until terminal.
//   - Store: append-only conversation log; rejects tool results that
//     answer no pending tool call.
//   - Registry / Snapshot: named tools with declared schemas, validated
//     at registration; runs see an immutable snapshot taken at start.
//   - Executor: dispatches one tool call (lookup, argument validation,
//     invocation under a per-call timeout with panic recovery).
//   - RunResult: immutable summary (final text, transcript, stop
//     reason, usage and cost stats).
//
// # Quick Start
//
//	registry := agent.NewRegistry()
//	registry.MustRegister(agent.ToolSpec{
//	    Name:        "get_weather",
//	    Description: "Get the current weather for a city",
//	    Schema: agent.Schema{
//	        Properties: map[string]agent.Property{
//	            "city": {Type: "string"},
//	        },
//	        Required: []string{"city"},
//	    },
//	    Run: func(ctx context.Context, args map[string]any) (string, error) {
//	        return `{"temp_c": 18}`, nil
//	    },
//	})
//
//	adapter, _ := llm.NewOpenAIAdapter(llm.OpenAIConfig{APIKey: key})
//	cfg := agent.DefaultRunConfig()
//	cfg.Model = "gpt-5.2"
//
//	result, _ := agent.Run(ctx, "What's the weather in Paris?", registry, adapter, cfg)
//	fmt.Println(result.FinalText, result.StopReason)
//
// # Termination
//
// Every run ends with a stop reason: completed, max_turns,
// max_retries_exceeded, tool_fatal_error, cancelled, or provider_error
// for fatal provider failures (bad credentials, malformed responses).
// The terminal error detail, when any, is in RunResult.Err; Run's error
// return is reserved for configuration rejection before the run starts.
//
// # Concurrency
//
// One Loop drives one run. Tool calls within a turn execute
// concurrently, but their results are appended in request order and the
// next model call waits for all of them. Cancelling the context
// terminates the run promptly, including mid-backoff and mid-stream.
package agent
