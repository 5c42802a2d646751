package toolenv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/runloop-dev/runloop/agent"
)

// RegisterTools registers the builtin tools on a registry, bound to the
// given environment. defaultTimeoutMs bounds exec_command when the
// model supplies no timeout; maxTimeoutMs caps what it may request.
func RegisterTools(reg *agent.Registry, env Environment, defaultTimeoutMs, maxTimeoutMs int) error {
	specs := []agent.ToolSpec{
		readFileSpec(env),
		writeFileSpec(env),
		listDirectorySpec(env),
		execCommandSpec(env, defaultTimeoutMs, maxTimeoutMs),
	}
	for _, spec := range specs {
		if err := reg.Register(spec); err != nil {
			return err
		}
	}
	return nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]any, key string) int {
	switch n := args[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0
		}
		return int(i)
	}
	return 0
}

func readFileSpec(env Environment) agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "read_file",
		Description: "Read a file from the filesystem. Returns line-numbered content.",
		Schema: agent.Schema{
			Properties: map[string]agent.Property{
				"path":   {Type: "string", Description: "Path to the file to read."},
				"offset": {Type: "integer", Description: "1-based line number to start reading from."},
				"limit":  {Type: "integer", Description: "Maximum number of lines to read. Default: 2000."},
			},
			Required: []string{"path"},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			path := stringArg(args, "path")
			if path == "" {
				return "", fmt.Errorf("path is required")
			}
			limit := intArg(args, "limit")
			if limit == 0 {
				limit = 2000
			}
			return env.ReadFile(path, intArg(args, "offset"), limit)
		},
	}
}

func writeFileSpec(env Environment) agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "write_file",
		Description: "Write content to a file. Creates the file and parent directories if needed.",
		Schema: agent.Schema{
			Properties: map[string]agent.Property{
				"path":    {Type: "string", Description: "Path to write to."},
				"content": {Type: "string", Description: "The full file content to write."},
			},
			Required: []string{"path", "content"},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			path := stringArg(args, "path")
			if path == "" {
				return "", fmt.Errorf("path is required")
			}
			content := stringArg(args, "content")
			if err := env.WriteFile(path, content); err != nil {
				return "", err
			}
			return fmt.Sprintf("Wrote %d bytes to %s", len(content), path), nil
		},
	}
}

func listDirectorySpec(env Environment) agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "list_directory",
		Description: "List the entries of a directory.",
		Schema: agent.Schema{
			Properties: map[string]agent.Property{
				"path": {Type: "string", Description: "Directory to list. Default: the working directory."},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			path := stringArg(args, "path")
			if path == "" {
				path = "."
			}
			entries, err := env.ListDirectory(path)
			if err != nil {
				return "", err
			}
			out, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	}
}

func execCommandSpec(env Environment, defaultTimeoutMs, maxTimeoutMs int) agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "exec_command",
		Description: "Run a shell command in the working directory and return its output.",
		Schema: agent.Schema{
			Properties: map[string]agent.Property{
				"command":    {Type: "string", Description: "The shell command to run."},
				"timeout_ms": {Type: "integer", Description: "Timeout in milliseconds."},
			},
			Required: []string{"command"},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			command := stringArg(args, "command")
			if command == "" {
				return "", fmt.Errorf("command is required")
			}
			timeoutMs := intArg(args, "timeout_ms")
			if timeoutMs <= 0 {
				timeoutMs = defaultTimeoutMs
			}
			if maxTimeoutMs > 0 && timeoutMs > maxTimeoutMs {
				timeoutMs = maxTimeoutMs
			}

			result, err := env.ExecCommand(ctx, command, timeoutMs)
			if err != nil {
				return "", err
			}
			if result.TimedOut {
				return "", fmt.Errorf("command timed out after %dms", timeoutMs)
			}
			output := result.Output()
			if result.ExitCode != 0 {
				return "", fmt.Errorf("exit code %d:\n%s", result.ExitCode, output)
			}
			return output, nil
		},
	}
}
