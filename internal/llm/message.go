package llm

// Role tags a message with its author within the conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is the single normalized message shape used throughout the
// conversation loop. Provider replies are converted into it once, at the
// client boundary.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []*ToolCall
	ToolCallID string
	// Name is the originating tool name on tool-result messages.
	Name string
}

// ToolCall is a model-issued request to execute a named tool.
type ToolCall struct {
	ID       string
	Type     string
	Function *FunctionCall
}

// FunctionCall carries the tool name and its JSON-encoded arguments.
type FunctionCall struct {
	Name      string
	Arguments string
}

// Usage reports token accounting for one completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
