package tool

import (
	"context"
	"encoding/json"
)

// Tool is one capability the model may request. Arguments arrive as raw
// JSON and are untrusted: every tool validates them before acting.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a brief description of what this tool does.
	Description() string

	// Parameters returns the JSON schema for the tool's parameters.
	Parameters() map[string]any

	// Execute runs the tool with the given parameters. Domain failures are
	// reported inside Result, not as an error; a non-nil error means the
	// tool itself broke.
	Execute(ctx context.Context, params json.RawMessage) (*Result, error)
}

// Result is the outcome of one tool execution.
type Result struct {
	Success bool
	// Output is the text recorded into the conversation on success.
	Output string
	// Error is the failure description recorded into the conversation.
	Error string
	// Data carries typed artifacts for the dispatcher (query results,
	// charts) that never go through the model.
	Data map[string]any
}
