// Package finance provides the two built-in tools of the transaction agent:
// the aggregation query tool and the visualization tool.
package finance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dineshram0212/bank-transaction-agent/internal/store"
	"github.com/dineshram0212/bank-transaction-agent/internal/tool"
)

// QueryRunner executes a validated aggregation spec for one client.
// *store.Store satisfies it.
type QueryRunner interface {
	RunAggregation(ctx context.Context, spec store.QuerySpec, clientID string) (*store.QueryResult, error)
}

// ResultDataKey is where QueryTool places the typed *store.QueryResult in
// Result.Data for the dispatcher to pick up.
const ResultDataKey = "result"

// QueryTool turns structured tool arguments into one aggregation query over
// the caller's transactions.
type QueryTool struct {
	runner QueryRunner
}

func NewQueryTool(runner QueryRunner) *QueryTool {
	return &QueryTool{runner: runner}
}

func (t *QueryTool) Name() string {
	return "query_sql"
}

func (t *QueryTool) Description() string {
	return "Generates a SQL query to retrieve transaction summaries or aggregations based on the user's query."
}

func (t *QueryTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"start_date": map[string]any{
				"type":        "string",
				"format":      "date",
				"description": "The start date for the transaction filter in YYYY-MM-DD format.",
			},
			"end_date": map[string]any{
				"type":        "string",
				"format":      "date",
				"description": "The end date for the transaction filter in YYYY-MM-DD format.",
			},
			"aggregation": map[string]any{
				"type":        "string",
				"enum":        []string{"sum", "count", "avg", "max", "min"},
				"description": "The type of aggregation to perform on the transaction amounts.",
			},
			"direction": map[string]any{
				"type":        "string",
				"enum":        []string{"spend", "income", "both"},
				"description": "Filter transactions based on amount direction. 'spend' for negative, 'income' for positive, 'both' for all.",
			},
			"category": map[string]any{
				"type":        "string",
				"description": "Filter transactions by a specific category.",
			},
			"merchants": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "List of merchants to filter the transactions by (case-insensitive).",
			},
			"descriptions": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "List of keywords to search for in the transaction descriptions.",
			},
			"group_by": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "string",
					"enum": []string{"bank_id", "acc_id", "txn_id", "txn_date", "desc", "amt", "cat", "merchant"},
				},
				"description": "Columns to group the results by.",
			},
			"limit": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"description": "Limit the number of rows returned.",
			},
		},
		"required": []string{"aggregation"},
	}
}

// queryArgs is the spec plus the caller-scoped client identifier injected by
// the dispatcher. A model-supplied client_id is always overwritten before
// execution reaches this point.
type queryArgs struct {
	store.QuerySpec
	ClientID string `json:"client_id"`
}

func (t *QueryTool) Execute(ctx context.Context, params json.RawMessage) (*tool.Result, error) {
	var args queryArgs
	if err := json.Unmarshal(params, &args); err != nil {
		return &tool.Result{Success: false, Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}
	if args.ClientID == "" {
		return &tool.Result{Success: false, Error: "missing client identifier"}, nil
	}

	result, err := t.runner.RunAggregation(ctx, args.QuerySpec, args.ClientID)
	if err != nil {
		// Validation failure: the query was never executed. The message
		// becomes conversation context so the model can revise its request.
		return &tool.Result{Success: false, Error: err.Error()}, nil
	}

	payload, merr := json.Marshal(result)
	if merr != nil {
		return &tool.Result{Success: false, Error: fmt.Sprintf("encode result: %v", merr)}, nil
	}

	if result.Err != "" {
		return &tool.Result{
			Success: false,
			Error:   fmt.Sprintf("query failed: %s (query: %s)", result.Err, result.Query),
			Data:    map[string]any{ResultDataKey: result},
		}, nil
	}

	return &tool.Result{
		Success: true,
		Output:  string(payload),
		Data:    map[string]any{ResultDataKey: result},
	}, nil
}
