package store

import (
	"context"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func seedTransactions(t *testing.T, st *Store) {
	t.Helper()
	txns := []Transaction{
		{UID: 1, ClientID: "c1", AccID: "a1", Date: "2024-01-05", Desc: "TESCO STORES 3417", Amount: -42.50, Category: "groceries", Merchant: "tesco"},
		{UID: 2, ClientID: "c1", AccID: "a1", Date: "2024-01-12", Desc: "Netflix subscription", Amount: -9.99, Category: "entertainment", Merchant: "netflix"},
		{UID: 3, ClientID: "c1", AccID: "a1", Date: "2024-02-01", Desc: "SALARY ACME LTD", Amount: 2500.00, Category: "income", Merchant: "acme"},
		{UID: 4, ClientID: "c1", AccID: "a1", Date: "2024-02-14", Desc: "Uber trip", Amount: -18.20, Category: "transport", Merchant: "uber"},
		{UID: 5, ClientID: "c2", AccID: "b1", Date: "2024-01-05", Desc: "TESCO STORES 9001", Amount: -13.00, Category: "groceries", Merchant: "tesco"},
	}
	if err := st.Insert(context.Background(), txns); err != nil {
		t.Fatalf("Failed to insert transactions: %v", err)
	}
}

func TestStore_ClientExists(t *testing.T) {
	st := openTestStore(t)
	seedTransactions(t, st)
	ctx := context.Background()

	exists, err := st.ClientExists(ctx, "c1")
	if err != nil {
		t.Fatalf("ClientExists failed: %v", err)
	}
	if !exists {
		t.Error("Expected c1 to exist")
	}

	exists, err = st.ClientExists(ctx, "nobody")
	if err != nil {
		t.Fatalf("ClientExists failed: %v", err)
	}
	if exists {
		t.Error("Expected unknown client to not exist")
	}
}

func TestStore_RunAggregation_Sum(t *testing.T) {
	st := openTestStore(t)
	seedTransactions(t, st)

	result, err := st.RunAggregation(context.Background(), QuerySpec{
		Aggregation: "sum",
		Direction:   "spend",
	}, "c1")
	if err != nil {
		t.Fatalf("RunAggregation failed: %v", err)
	}
	if result.Err != "" {
		t.Fatalf("Unexpected query error: %s", result.Err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("Expected one row, got %d", len(result.Rows))
	}

	sum, ok := result.Rows[0]["SUM(amt)"].(float64)
	if !ok {
		t.Fatalf("Expected float64 sum, got %T", result.Rows[0]["SUM(amt)"])
	}
	want := -42.50 - 9.99 - 18.20
	if sum < want-0.001 || sum > want+0.001 {
		t.Errorf("Expected spend sum %.2f, got %.2f", want, sum)
	}
}

func TestStore_RunAggregation_ClientIsolation(t *testing.T) {
	st := openTestStore(t)
	seedTransactions(t, st)
	ctx := context.Background()

	for client, want := range map[string]int64{"c1": 4, "c2": 1, "c3": 0} {
		result, err := st.RunAggregation(ctx, QuerySpec{Aggregation: "count"}, client)
		if err != nil {
			t.Fatalf("RunAggregation(%s) failed: %v", client, err)
		}
		got, ok := result.Rows[0]["COUNT(*)"].(int64)
		if !ok {
			t.Fatalf("Expected int64 count, got %T", result.Rows[0]["COUNT(*)"])
		}
		if got != want {
			t.Errorf("Client %s: expected count %d, got %d", client, want, got)
		}
	}
}

func TestStore_RunAggregation_DirectionsPartitionRecords(t *testing.T) {
	st := openTestStore(t)
	seedTransactions(t, st)
	ctx := context.Background()

	counts := map[string]int64{}
	for _, dir := range []string{"spend", "income", "both"} {
		result, err := st.RunAggregation(ctx, QuerySpec{Aggregation: "count", Direction: dir}, "c1")
		if err != nil {
			t.Fatalf("RunAggregation(%s) failed: %v", dir, err)
		}
		counts[dir] = result.Rows[0]["COUNT(*)"].(int64)
	}

	if counts["spend"]+counts["income"] != counts["both"] {
		t.Errorf("spend (%d) + income (%d) should equal both (%d)",
			counts["spend"], counts["income"], counts["both"])
	}
	if counts["spend"] != 3 || counts["income"] != 1 {
		t.Errorf("Expected 3 spend and 1 income, got %d and %d", counts["spend"], counts["income"])
	}
}

func TestStore_RunAggregation_GroupBy(t *testing.T) {
	st := openTestStore(t)
	seedTransactions(t, st)

	result, err := st.RunAggregation(context.Background(), QuerySpec{
		Aggregation: "sum",
		Direction:   "spend",
		GroupBy:     []string{"cat"},
	}, "c1")
	if err != nil {
		t.Fatalf("RunAggregation failed: %v", err)
	}
	if result.Err != "" {
		t.Fatalf("Unexpected query error: %s", result.Err)
	}
	// groceries, entertainment, transport
	if len(result.Rows) != 3 {
		t.Fatalf("Expected 3 grouped rows, got %d", len(result.Rows))
	}
	if len(result.Columns) != 2 || result.Columns[0] != "cat" {
		t.Errorf("Expected columns [cat SUM(amt)], got %v", result.Columns)
	}
}

func TestStore_RunAggregation_DateRange(t *testing.T) {
	st := openTestStore(t)
	seedTransactions(t, st)

	result, err := st.RunAggregation(context.Background(), QuerySpec{
		Aggregation: "count",
		StartDate:   "2024-02-01",
		EndDate:     "2024-02-28",
	}, "c1")
	if err != nil {
		t.Fatalf("RunAggregation failed: %v", err)
	}
	if got := result.Rows[0]["COUNT(*)"].(int64); got != 2 {
		t.Errorf("Expected 2 February transactions, got %d", got)
	}
}

func TestStore_RunAggregation_MerchantAndDescriptionFilters(t *testing.T) {
	st := openTestStore(t)
	seedTransactions(t, st)
	ctx := context.Background()

	result, err := st.RunAggregation(ctx, QuerySpec{
		Aggregation: "count",
		Merchants:   []string{"TESCO"},
	}, "c1")
	if err != nil {
		t.Fatalf("RunAggregation failed: %v", err)
	}
	if got := result.Rows[0]["COUNT(*)"].(int64); got != 1 {
		t.Errorf("Expected 1 tesco match for c1, got %d", got)
	}

	result, err = st.RunAggregation(ctx, QuerySpec{
		Aggregation:  "count",
		Descriptions: []string{"netflix", "uber"},
	}, "c1")
	if err != nil {
		t.Fatalf("RunAggregation failed: %v", err)
	}
	if got := result.Rows[0]["COUNT(*)"].(int64); got != 2 {
		t.Errorf("Expected 2 description matches, got %d", got)
	}
}

func TestStore_RunAggregation_ValidationErrorBeforeExecution(t *testing.T) {
	st := openTestStore(t)
	seedTransactions(t, st)

	_, err := st.RunAggregation(context.Background(), QuerySpec{Aggregation: "bogus"}, "c1")
	if err == nil {
		t.Fatal("Expected validation error for bogus aggregation")
	}
}

func TestStore_FetchTexts_PreservesOrder(t *testing.T) {
	st := openTestStore(t)
	seedTransactions(t, st)

	texts, err := st.FetchTexts(context.Background(), []int64{4, 1, 99, 2})
	if err != nil {
		t.Fatalf("FetchTexts failed: %v", err)
	}
	if len(texts) != 3 {
		t.Fatalf("Expected 3 texts, got %d", len(texts))
	}
	wantUIDs := []int64{4, 1, 2}
	for i, txt := range texts {
		if txt.UID != wantUIDs[i] {
			t.Errorf("Position %d: expected uid %d, got %d", i, wantUIDs[i], txt.UID)
		}
	}
}
