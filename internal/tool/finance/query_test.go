package finance

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dineshram0212/bank-transaction-agent/internal/store"
)

type mockRunner struct {
	lastSpec     store.QuerySpec
	lastClientID string
	result       *store.QueryResult
	err          error
}

func (m *mockRunner) RunAggregation(_ context.Context, spec store.QuerySpec, clientID string) (*store.QueryResult, error) {
	m.lastSpec = spec
	m.lastClientID = clientID
	return m.result, m.err
}

func TestQueryTool_Execute_Success(t *testing.T) {
	runner := &mockRunner{result: &store.QueryResult{
		Columns: []string{"SUM(amt)"},
		Rows:    []map[string]any{{"SUM(amt)": -72.69}},
	}}
	qt := NewQueryTool(runner)

	args := json.RawMessage(`{"aggregation":"sum","direction":"spend","client_id":"c1"}`)
	result, err := qt.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected success, got error: %s", result.Error)
	}

	if runner.lastClientID != "c1" {
		t.Errorf("Expected client c1, got %s", runner.lastClientID)
	}
	if runner.lastSpec.Aggregation != "sum" || runner.lastSpec.Direction != "spend" {
		t.Errorf("Unexpected spec: %+v", runner.lastSpec)
	}

	if !strings.Contains(result.Output, "-72.69") {
		t.Errorf("Output should carry the result payload: %s", result.Output)
	}
	if result.Data[ResultDataKey] != runner.result {
		t.Error("Result.Data should hold the typed query result")
	}
}

func TestQueryTool_Execute_MissingClientID(t *testing.T) {
	qt := NewQueryTool(&mockRunner{})

	result, err := qt.Execute(context.Background(), json.RawMessage(`{"aggregation":"sum"}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Success {
		t.Error("Expected failure when client id is absent")
	}
	if !strings.Contains(result.Error, "client") {
		t.Errorf("Error should mention the client identifier, got: %s", result.Error)
	}
}

func TestQueryTool_Execute_ValidationError(t *testing.T) {
	qt := NewQueryTool(&mockRunner{err: store.ErrInvalidAggregation})

	result, err := qt.Execute(context.Background(), json.RawMessage(`{"aggregation":"median","client_id":"c1"}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Success {
		t.Error("Expected failure for invalid aggregation")
	}
	if !strings.Contains(result.Error, "invalid aggregation") {
		t.Errorf("Unexpected error message: %s", result.Error)
	}
	if result.Data != nil {
		t.Error("Validation failures should not carry a result")
	}
}

func TestQueryTool_Execute_ExecutionError(t *testing.T) {
	failed := &store.QueryResult{Err: "disk I/O error", Query: "SELECT SUM(amt) FROM transactions WHERE clnt_id = ?"}
	qt := NewQueryTool(&mockRunner{result: failed})

	result, err := qt.Execute(context.Background(), json.RawMessage(`{"aggregation":"sum","client_id":"c1"}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Success {
		t.Error("Expected failure for execution error")
	}
	if !strings.Contains(result.Error, "disk I/O error") || !strings.Contains(result.Error, "SELECT") {
		t.Errorf("Error should carry the failure and query, got: %s", result.Error)
	}
	// The failed result is still handed to the dispatcher; a later
	// visualization attempt must see it and refuse.
	if result.Data[ResultDataKey] != failed {
		t.Error("Execution failures should still carry the typed result")
	}
}

func TestQueryTool_Execute_BadArguments(t *testing.T) {
	qt := NewQueryTool(&mockRunner{})

	result, err := qt.Execute(context.Background(), json.RawMessage(`{"aggregation":`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Success {
		t.Error("Expected failure for malformed arguments")
	}
}

func TestQueryTool_Schema(t *testing.T) {
	qt := NewQueryTool(&mockRunner{})

	if qt.Name() != "query_sql" {
		t.Errorf("Unexpected tool name: %s", qt.Name())
	}

	params := qt.Parameters()
	required, ok := params["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "aggregation" {
		t.Errorf("Expected aggregation as the only required field, got: %v", params["required"])
	}

	props := params["properties"].(map[string]any)
	if _, exists := props["client_id"]; exists {
		t.Error("client_id must not be part of the model-facing schema")
	}
}
