// Package agent drives the conversation loop of the financial assistant:
// retrieve semantic hints, ask the model, execute requested tools, repeat
// until the model produces a final answer.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dineshram0212/bank-transaction-agent/internal/llm"
	"github.com/dineshram0212/bank-transaction-agent/internal/logger"
	"github.com/dineshram0212/bank-transaction-agent/internal/prompt"
	"github.com/dineshram0212/bank-transaction-agent/internal/retrieval"
	"github.com/dineshram0212/bank-transaction-agent/internal/tool"
)

const (
	// invalidFormattingMessage replaces replies that hand-write tool-call
	// syntax into body text instead of using structured tool calling.
	invalidFormattingMessage = "Error: Detected invalid manual tool call formatting. Please try rephrasing."
	// turnLimitMessage terminates conversations that exhaust MaxTurns.
	turnLimitMessage = "Error: The conversation exceeded the maximum number of turns. Please start over with a simpler question."
)

// manualToolCallMarkers are textual fragments that indicate the model tried
// to bypass structured tool calling.
var manualToolCallMarkers = []string{"<tool_call", "<function"}

// Agent is the conversation controller. It is stateless across turns; all
// per-session state lives in Session, all per-turn state in invocation.
type Agent struct {
	client    llm.Client
	registry  *tool.Registry
	retriever *retrieval.Retriever
	cfg       Config

	// modelTimeout bounds one chat completion call. Expiry is treated as a
	// model-call failure, not a crash.
	modelTimeout time.Duration

	// now is swappable for tests.
	now func() time.Time
}

func New(client llm.Client, registry *tool.Registry, retriever *retrieval.Retriever, cfg Config, modelTimeout time.Duration) *Agent {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 10
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 8
	}
	if modelTimeout <= 0 {
		modelTimeout = 60 * time.Second
	}
	return &Agent{
		client:       client,
		registry:     registry,
		retriever:    retriever,
		cfg:          cfg,
		modelTimeout: modelTimeout,
		now:          time.Now,
	}
}

// Chat runs one full user turn: seed the context with trimmed history plus
// the user's message, then alternate between asking the model and running
// tools until a terminal reply. It returns the turn outcome and the message
// list for the session to carry forward.
func (a *Agent) Chat(ctx context.Context, query, clientID string, history []llm.Message) (*Turn, []llm.Message, error) {
	hints := a.retrieveHints(ctx, query, clientID)
	today := a.now().Format("2006-01-02")

	messages := append(trimHistory(history, a.cfg.HistoryLimit), llm.Message{
		Role:    llm.RoleUser,
		Content: query,
	})

	inv := &invocation{clientID: clientID}
	state := StateAwaitingModel

	for turn := 0; state != StateDone; turn++ {
		if turn >= a.cfg.MaxTurns {
			logger.Warn().Int("max_turns", a.cfg.MaxTurns).Msg("turn limit exceeded")
			messages = append(messages, llm.Message{
				Role:    llm.RoleAssistant,
				Content: turnLimitMessage,
			})
			break
		}

		switch state {
		case StateAwaitingModel:
			logger.ModelTurn(turn+1, a.client.Model())
			messages = a.callModel(ctx, messages, hints, today)
		case StateAwaitingTools:
			messages = a.runTools(ctx, messages, inv)
		}

		state = nextState(messages)
	}

	turn := &Turn{Chart: inv.chart}
	if len(messages) > 0 {
		turn.Content = messages[len(messages)-1].Content
	}
	return turn, messages, nil
}

// retrieveHints runs the semantic retrieval step. Retrieval trouble degrades
// to "no hints available" rather than failing the turn.
func (a *Agent) retrieveHints(ctx context.Context, query, clientID string) *retrieval.Hints {
	hints, err := a.retriever.Retrieve(ctx, query, clientID)
	if err != nil {
		logger.Warn().Err(err).Msg("retrieval failed, continuing without semantic hints")
		return &retrieval.Hints{}
	}
	logger.Debug().
		Int("merchants", len(hints.Merchants)).
		Int("keywords", len(hints.Keywords)).
		Msg("retrieved semantic hints")
	return hints
}

// callModel invokes the model with the system prompt and full history, and
// appends exactly one message describing the outcome. Transport failures
// become an assistant-role error message so the normal transition logic
// terminates the conversation.
func (a *Agent) callModel(ctx context.Context, messages []llm.Message, hints *retrieval.Hints, today string) []llm.Message {
	system := llm.Message{
		Role:    llm.RoleSystem,
		Content: prompt.System(hints.Merchants, hints.Keywords, today),
	}

	callCtx, cancel := context.WithTimeout(ctx, a.modelTimeout)
	defer cancel()

	resp, err := a.client.Chat(callCtx, &llm.ChatRequest{
		Messages:    append([]llm.Message{system}, messages...),
		Tools:       a.registry.Definitions(),
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	})
	if err != nil {
		logger.Error().Err(err).Msg("model call failed")
		return append(messages, llm.Message{
			Role:    llm.RoleAssistant,
			Content: fmt.Sprintf("Model error: %v", err),
		})
	}

	reply := resp.Message
	reply.Role = llm.RoleAssistant

	if containsManualToolCall(reply.Content) {
		logger.Warn().Msg("model emitted manual tool call text, rejecting reply")
		return append(messages, llm.Message{
			Role:    llm.RoleAssistant,
			Content: invalidFormattingMessage,
		})
	}

	return append(messages, reply)
}

func containsManualToolCall(content string) bool {
	for _, marker := range manualToolCallMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}

// trimHistory keeps the most recent limit user/assistant messages. Older
// tool-result messages are never carried over.
func trimHistory(history []llm.Message, limit int) []llm.Message {
	kept := make([]llm.Message, 0, len(history))
	for _, m := range history {
		if m.Role != llm.RoleUser && m.Role != llm.RoleAssistant {
			continue
		}
		// Tool-call requests without a following result confuse the provider
		// API, so carried-over assistant messages keep text only. A message
		// that carried nothing but tool calls has no text left and is dropped
		// entirely rather than sent as a blank turn.
		if m.Content == "" {
			continue
		}
		kept = append(kept, llm.Message{Role: m.Role, Content: m.Content})
	}
	if len(kept) > limit {
		kept = kept[len(kept)-limit:]
	}
	return kept
}
