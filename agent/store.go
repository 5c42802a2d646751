package agent

import (
	"sync"

	"github.com/runloop-dev/runloop/llm"
)

// Store is the append-only message log for one run. Each run owns
// exactly one Store; it is created at run start and discarded once the
// RunResult has been assembled.
//
// The store tracks which tool calls from the latest assistant message
// are still awaiting results and rejects tool-result messages that
// answer nothing.
type Store struct {
	mu       sync.Mutex
	messages []llm.Message
	pending  map[string]bool
}

// NewStore creates an empty message store.
func NewStore() *Store {
	return &Store{pending: make(map[string]bool)}
}

// Append adds a message to the log. An assistant message with tool
// calls opens one pending slot per call; a tool-result message must
// answer one of those slots or it is rejected with ErrOrphanToolResult.
func (s *Store) Append(msg llm.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch msg.Role {
	case llm.RoleAssistant:
		s.pending = make(map[string]bool, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			s.pending[tc.ID] = true
		}
	case llm.RoleTool:
		if !s.pending[msg.ToolCallID] {
			return &ErrOrphanToolResult{ToolCallID: msg.ToolCallID}
		}
		delete(s.pending, msg.ToolCallID)
	}

	s.messages = append(s.messages, msg)
	return nil
}

// Messages returns a copy of the log.
func (s *Store) Messages() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llm.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages appended so far.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// PendingToolCalls returns how many tool calls from the latest
// assistant message still await results.
func (s *Store) PendingToolCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
