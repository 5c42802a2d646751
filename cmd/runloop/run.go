package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/runloop-dev/runloop/agent"
	"github.com/runloop-dev/runloop/agent/toolenv"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <prompt>",
		Short: "Run a prompt through the agentic loop",
		Long: "Run sends the prompt to the configured model and drives the loop " +
			"(model call, tool dispatch, result feedback) until the model produces " +
			"a final answer or a stop condition fires.",
		Args: cobra.MinimumNArgs(1),
		RunE: runRun,
	}

	cmd.Flags().StringP("model", "m", "", "model identifier (or Azure deployment name)")
	cmd.Flags().StringP("provider", "p", "", "provider: openai, azure, ollama, or a gollm-supported name")
	cmd.Flags().StringP("system", "s", "", "system prompt")
	cmd.Flags().Int("max-turns", 0, "maximum tool-dispatch cycles")
	cmd.Flags().Int("max-retries", 0, "maximum provider attempts per call")
	cmd.Flags().Bool("stream", false, "stream model output as it arrives")
	cmd.Flags().StringP("workdir", "w", "", "working directory for the builtin tools")
	cmd.Flags().Bool("no-tools", false, "run without the builtin tool set")
	cmd.Flags().Float64("temperature", -1, "sampling temperature")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	prompt := strings.Join(args, " ")

	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = v.GetString("model")
	}
	provider, _ := cmd.Flags().GetString("provider")
	if provider == "" {
		provider = v.GetString("provider")
	}

	adapter, err := newAdapter(v, provider, model)
	if err != nil {
		return err
	}
	adapter = withCallLogging(adapter)

	registry := agent.NewRegistry()
	if noTools, _ := cmd.Flags().GetBool("no-tools"); !noTools {
		workdir, _ := cmd.Flags().GetString("workdir")
		env := toolenv.NewLocal(workdir)
		if err := toolenv.RegisterTools(registry, env,
			v.GetInt("exec.default_timeout_ms"), v.GetInt("exec.max_timeout_ms")); err != nil {
			return err
		}
	}

	cfg := agent.DefaultRunConfig()
	cfg.Model = model
	cfg.SystemPrompt, _ = cmd.Flags().GetString("system")
	cfg.Streaming, _ = cmd.Flags().GetBool("stream")
	cfg.PerToolTimeout = time.Duration(v.GetInt("per_tool_timeout_ms")) * time.Millisecond
	if n, _ := cmd.Flags().GetInt("max-turns"); n > 0 {
		cfg.MaxTurns = n
	} else if n := v.GetInt("max_turns"); n > 0 {
		cfg.MaxTurns = n
	}
	if n, _ := cmd.Flags().GetInt("max-retries"); n > 0 {
		cfg.MaxRetries = n
	} else if n := v.GetInt("max_retries"); n > 0 {
		cfg.MaxRetries = n
	}
	if temp, _ := cmd.Flags().GetFloat64("temperature"); temp >= 0 {
		cfg.Temperature = &temp
	}

	loop, err := agent.NewLoop(adapter, registry, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	streamed := make(chan bool, 1)
	go consumeEvents(cmd, loop.Events(), cfg.Streaming, streamed)

	result, err := loop.Run(ctx, prompt)
	if err != nil {
		return err
	}
	sawText := <-streamed

	return printResult(cmd, result, sawText)
}

// consumeEvents drains the loop's event channel: text deltas go to
// stdout when streaming, everything else to slog at debug. Reports on
// the done channel whether any text was written to stdout.
func consumeEvents(cmd *cobra.Command, events <-chan agent.Event, streaming bool, done chan<- bool) {
	sawText := false
	for e := range events {
		switch e.Kind {
		case agent.EventTextDelta:
			if streaming {
				if delta, ok := e.Data["delta"].(string); ok {
					fmt.Fprint(cmd.OutOrStdout(), delta)
					sawText = true
				}
			}
		case agent.EventModelRetry:
			slog.Warn("retrying model call",
				"attempt", e.Data["attempt"], "delay", e.Data["delay"], "error", e.Data["error"])
		case agent.EventRepeatWarning:
			slog.Warn("repeating tool calls detected")
		case agent.EventToolCallStart:
			slog.Debug("tool call", "tool", e.Data["tool_name"], "call_id", e.Data["call_id"])
		case agent.EventToolCallEnd:
			if errMsg, ok := e.Data["error"]; ok {
				slog.Debug("tool failed", "tool", e.Data["tool_name"], "error", errMsg)
			} else {
				slog.Debug("tool done", "tool", e.Data["tool_name"])
			}
		case agent.EventModelCallStart:
			slog.Debug("model call", "messages", e.Data["messages"])
		case agent.EventModelCallEnd:
			slog.Debug("model responded",
				"finish_reason", e.Data["finish_reason"], "tool_calls", e.Data["tool_calls"])
		case agent.EventError:
			slog.Error("run error", "error", e.Data["error"])
		}
	}
	done <- sawText
}

func printResult(cmd *cobra.Command, result *agent.RunResult, alreadyStreamed bool) error {
	out := cmd.OutOrStdout()

	if result.StopReason == agent.StopCompleted {
		if alreadyStreamed {
			fmt.Fprintln(out)
		} else {
			fmt.Fprintln(out, result.FinalText)
		}
	} else {
		if alreadyStreamed {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "run stopped: %s", result.StopReason)
		if result.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), ": %v", result.Err)
		}
		fmt.Fprintln(cmd.ErrOrStderr())
	}

	slog.Info("run finished",
		"run_id", result.RunID,
		"stop_reason", result.StopReason,
		"stats", result.Stats.Summary(),
	)

	if result.StopReason != agent.StopCompleted {
		return fmt.Errorf("run stopped with %s", result.StopReason)
	}
	return nil
}
