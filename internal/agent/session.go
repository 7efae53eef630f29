package agent

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dineshram0212/bank-transaction-agent/internal/llm"
)

// Session is one client's conversation. It owns the only state shared
// across turns: the message history and nothing else. Per-turn artifacts
// (query results, charts) never outlive the turn that produced them. A
// session runs turns sequentially; the mutex guards against accidental
// concurrent Ask calls from the host.
type Session struct {
	ID       string
	ClientID string

	agent *Agent

	mu      sync.Mutex
	history []llm.Message
}

func NewSession(agent *Agent, clientID string) *Session {
	return &Session{
		ID:       uuid.NewString(),
		ClientID: clientID,
		agent:    agent,
	}
}

// Ask runs one user turn and returns its outcome. The returned chart, when
// present, is one-shot: it is produced by this turn and never re-emitted.
func (s *Session) Ask(ctx context.Context, query string) (*Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn, messages, err := s.agent.Chat(ctx, query, s.ClientID, s.history)
	if err != nil {
		return nil, err
	}

	s.history = messages
	return turn, nil
}

// History returns a copy of the conversation so far.
func (s *Session) History() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]llm.Message, len(s.history))
	copy(out, s.history)
	return out
}
