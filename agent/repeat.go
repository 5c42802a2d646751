package agent

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/runloop-dev/runloop/llm"
)

// toolCallSignature computes a deterministic signature for a tool call
// (name + hash of arguments).
func toolCallSignature(name string, arguments json.RawMessage) string {
	h := sha256.Sum256(arguments)
	return fmt.Sprintf("%s:%x", name, h[:8])
}

// recentToolCallSignatures extracts signatures from the most recent
// tool calls in the transcript, in chronological order.
func recentToolCallSignatures(messages []llm.Message, count int) []string {
	var sigs []string
	for i := len(messages) - 1; i >= 0 && len(sigs) < count; i-- {
		msg := messages[i]
		if msg.Role != llm.RoleAssistant {
			continue
		}
		for j := len(msg.ToolCalls) - 1; j >= 0 && len(sigs) < count; j-- {
			tc := msg.ToolCalls[j]
			sigs = append(sigs, toolCallSignature(tc.Name, tc.Arguments))
		}
	}
	for i, j := 0, len(sigs)-1; i < j; i, j = i+1, j-1 {
		sigs[i], sigs[j] = sigs[j], sigs[i]
	}
	return sigs
}

// DetectRepeat reports whether the last windowSize tool calls follow a
// repeating pattern of length 1, 2, or 3. The loop injects a steering
// message when this fires so the model can break out.
func DetectRepeat(messages []llm.Message, windowSize int) bool {
	sigs := recentToolCallSignatures(messages, windowSize)
	if len(sigs) < windowSize {
		return false
	}

	for patternLen := 1; patternLen <= 3; patternLen++ {
		if windowSize%patternLen != 0 {
			continue
		}
		pattern := sigs[:patternLen]
		allMatch := true
		for i := patternLen; i < windowSize; i += patternLen {
			for j := 0; j < patternLen; j++ {
				if sigs[i+j] != pattern[j] {
					allMatch = false
					break
				}
			}
			if !allMatch {
				break
			}
		}
		if allMatch {
			return true
		}
	}

	return false
}
