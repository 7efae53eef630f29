package agent

import (
	"github.com/dineshram0212/bank-transaction-agent/internal/chart"
	"github.com/dineshram0212/bank-transaction-agent/internal/llm"
)

// State is the conversation loop's control state.
type State string

const (
	// StateAwaitingModel means the model must be asked next: either the
	// conversation just started or a tool result needs interpreting.
	StateAwaitingModel State = "awaiting-model"
	// StateAwaitingTools means the last model reply requested tool calls.
	StateAwaitingTools State = "awaiting-tools"
	// StateDone is the only terminal state.
	StateDone State = "done"
)

// Config bounds and tunes the conversation loop.
type Config struct {
	Temperature float32
	MaxTokens   int
	// MaxTurns caps loop iterations so a model that alternates tool calls
	// and non-terminal replies cannot spin forever.
	MaxTurns int
	// HistoryLimit is the number of carried-over user/assistant messages.
	HistoryLimit int
}

// Turn is what one user turn produces: the final text, plus a chart when a
// visualization tool ran. The chart is one-shot: the session clears it as
// soon as it is handed out.
type Turn struct {
	Content string
	Chart   *chart.Chart
}

// nextState derives the control state from the shape of the most recent
// message. The loop terminates only in StateDone.
func nextState(messages []llm.Message) State {
	if len(messages) == 0 {
		return StateDone
	}
	last := messages[len(messages)-1]

	// The model must always get the chance to interpret tool output.
	if last.Role == llm.RoleTool {
		return StateAwaitingModel
	}
	if len(last.ToolCalls) > 0 {
		return StateAwaitingTools
	}
	// Body text, or nothing at all, is terminal. No-content with no tool
	// calls is not an error.
	return StateDone
}
