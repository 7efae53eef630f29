package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dineshram0212/bank-transaction-agent/internal/chart"
	"github.com/dineshram0212/bank-transaction-agent/internal/llm"
	"github.com/dineshram0212/bank-transaction-agent/internal/logger"
	"github.com/dineshram0212/bank-transaction-agent/internal/store"
	"github.com/dineshram0212/bank-transaction-agent/internal/tool/finance"
)

// invocation is the per-turn dispatch context: the caller-scoped client
// identifier the model must never control, the most recent query result for
// visualization, and the chart produced this turn. It is created fresh for
// every user turn so nothing leaks across turns or sessions.
type invocation struct {
	clientID   string
	lastResult *store.QueryResult
	chart      *chart.Chart
}

// runTools executes the last message's tool calls one at a time, in the
// order received, appending one tool-result message per call. One call's
// failure never aborts its siblings.
func (a *Agent) runTools(ctx context.Context, messages []llm.Message, inv *invocation) []llm.Message {
	last := messages[len(messages)-1]
	for _, tc := range last.ToolCalls {
		messages = append(messages, a.dispatch(ctx, tc, inv))
	}
	return messages
}

// dispatch runs a single tool call and normalizes its outcome, success or
// failure, into a tool-result message tagged with the originating tool name.
func (a *Agent) dispatch(ctx context.Context, tc *llm.ToolCall, inv *invocation) llm.Message {
	name := tc.Function.Name
	resultMsg := func(content string) llm.Message {
		return llm.Message{
			Role:       llm.RoleTool,
			ToolCallID: tc.ID,
			Name:       name,
			Content:    content,
		}
	}

	logger.ToolCall(name, tc.Function.Arguments)

	t, err := a.registry.Get(name)
	if err != nil {
		return resultMsg("Tool not found")
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
		return resultMsg(fmt.Sprintf("Tool error: invalid arguments: %v", err))
	}
	if args == nil {
		args = map[string]any{}
	}

	switch name {
	case "query_sql":
		// The client identifier is caller-scoped. Overwrite whatever the
		// model may have supplied.
		args["client_id"] = inv.clientID

	case "visualize_data":
		if inv.lastResult == nil {
			return resultMsg("Error: No data to visualize.")
		}
		filtered := make(map[string]any, len(finance.VisualizeArgKeys)+1)
		for _, key := range finance.VisualizeArgKeys {
			if v, ok := args[key]; ok {
				filtered[key] = v
			}
		}
		filtered["data"] = inv.lastResult
		args = filtered
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return resultMsg(fmt.Sprintf("Tool error: %v", err))
	}

	start := time.Now()
	result, err := t.Execute(ctx, raw)
	if err != nil {
		logger.ToolResult(name, false, time.Since(start))
		return resultMsg(fmt.Sprintf("Tool error: %v", err))
	}

	// Capture typed artifacts before the outcome is flattened to text.
	switch name {
	case "query_sql":
		if qr, ok := result.Data[finance.ResultDataKey].(*store.QueryResult); ok {
			inv.lastResult = qr
		}
	case "visualize_data":
		if result.Success {
			if c, ok := result.Data[finance.ChartDataKey].(*chart.Chart); ok {
				inv.chart = c
			}
		}
	}

	logger.ToolResult(name, result.Success, time.Since(start))

	if !result.Success {
		return resultMsg("Error: " + result.Error)
	}
	return resultMsg(result.Output)
}
