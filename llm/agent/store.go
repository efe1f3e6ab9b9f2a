package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"quiver/llm"
)

// ConversationStore holds the model-facing message history for a session.
type ConversationStore interface {
	Add(ctx context.Context, msg llm.Message) error
	List(ctx context.Context) ([]llm.Message, error)
	Clear(ctx context.Context) error
}

// MemoryStore is an in-memory ConversationStore with a sliding window and
// tool-result truncation, so long sessions stay inside the context budget.
type MemoryStore struct {
	mu              sync.RWMutex
	msgs            []llm.Message
	maxMessages     int
	maxToolResponse int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		msgs:            make([]llm.Message, 0),
		maxMessages:     20,
		maxToolResponse: 2000,
	}
}

// Add appends a message, truncating oversized tool results and dropping
// the oldest messages past the window.
func (s *MemoryStore) Add(ctx context.Context, msg llm.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.Role == llm.RoleTool {
		msg = s.truncateToolResponse(msg)
	}
	s.msgs = append(s.msgs, msg)

	if len(s.msgs) > s.maxMessages {
		s.msgs = s.msgs[len(s.msgs)-s.maxMessages:]
	}
	return nil
}

// truncateToolResponse cuts an oversized tool result at a sentence or line
// boundary when one exists in the back half.
func (s *MemoryStore) truncateToolResponse(msg llm.Message) llm.Message {
	if len(msg.Content) <= s.maxToolResponse {
		return msg
	}

	originalLen := len(msg.Content)
	truncated := msg.Content[:s.maxToolResponse]

	cutoff := s.maxToolResponse
	for _, bp := range []string{".\n", ". ", "\n\n", "\n"} {
		if idx := strings.LastIndex(truncated, bp); idx > s.maxToolResponse/2 {
			cutoff = idx + len(bp)
			break
		}
	}

	msg.Content = msg.Content[:cutoff] + fmt.Sprintf(
		"\n\n[Tool result truncated: %d of %d chars kept]", cutoff, originalLen)
	return msg
}

// List returns a copy of the history.
func (s *MemoryStore) List(ctx context.Context) ([]llm.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]llm.Message, len(s.msgs))
	copy(result, s.msgs)
	return result, nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = nil
	return nil
}
