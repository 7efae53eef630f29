package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dineshram0212/bank-transaction-agent/internal/store"
	"github.com/dineshram0212/bank-transaction-agent/internal/vector"
)

const sampleCSV = `clnt_id,bank_id,acc_id,txn_id,txn_date,desc,amt,cat,merchant
c1,b1,a1,t1,2024/01/05,TESCO STORES 3417,-42.50,groceries,tesco
c1,b1,a1,t2,2024-01-12,Netflix subscription,-9.99,entertainment,netflix
c2,b2,a2,t3,2024-01-05,TESCO STORES 3417,-13.00,groceries,tesco
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write csv: %v", err)
	}
	return path
}

type countingEmbedder struct {
	calls int
	texts []string
}

func (e *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	e.texts = append(e.texts, texts...)
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func TestLoadCSV(t *testing.T) {
	txns, err := LoadCSV(writeCSV(t, sampleCSV))
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("Expected 3 transactions, got %d", len(txns))
	}

	first := txns[0]
	if first.UID != 0 || first.ClientID != "c1" || first.Amount != -42.50 {
		t.Errorf("Unexpected first transaction: %+v", first)
	}
	// Slash dates are normalized so range filters compare lexicographically.
	if first.Date != "2024-01-05" {
		t.Errorf("Expected normalized date, got %s", first.Date)
	}
	if txns[1].Date != "2024-01-12" {
		t.Errorf("Dash dates should pass through, got %s", txns[1].Date)
	}
}

func TestLoadCSV_MissingRequiredColumn(t *testing.T) {
	_, err := LoadCSV(writeCSV(t, "clnt_id,txn_date,desc\nc1,2024-01-01,x\n"))
	if err == nil {
		t.Fatal("Expected error for missing amt column")
	}
}

func TestLoadCSV_BadAmount(t *testing.T) {
	_, err := LoadCSV(writeCSV(t, "clnt_id,txn_date,amt\nc1,2024-01-01,not-a-number\n"))
	if err == nil {
		t.Fatal("Expected error for unparseable amount")
	}
}

func TestIndexer_Run(t *testing.T) {
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	embedder := &countingEmbedder{}
	index := vector.NewMemoryIndex()
	indexer := NewIndexer(st, embedder, index)

	if err := indexer.Run(context.Background(), writeCSV(t, sampleCSV)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	exists, err := st.ClientExists(context.Background(), "c1")
	if err != nil || !exists {
		t.Errorf("Expected c1 in store after load (err: %v)", err)
	}

	// Row 3 repeats row 1's text and is skipped; 2 unique texts remain.
	if len(embedder.texts) != 2 {
		t.Errorf("Expected 2 embedded texts, got %d: %v", len(embedder.texts), embedder.texts)
	}
	if index.Len() != 2 {
		t.Errorf("Expected 2 indexed points, got %d", index.Len())
	}
}

func TestIndexer_BuildFromStore(t *testing.T) {
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	txns := []store.Transaction{
		{UID: 1, ClientID: "c1", Date: "2024-01-01", Desc: "Uber trip", Amount: -10, Merchant: "uber"},
		{UID: 2, ClientID: "c1", Date: "2024-01-02", Desc: "Tesco stores", Amount: -20, Merchant: "tesco"},
	}
	if err := st.Insert(context.Background(), txns); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	index := vector.NewMemoryIndex()
	indexer := NewIndexer(st, &countingEmbedder{}, index)

	if err := indexer.BuildFromStore(context.Background()); err != nil {
		t.Fatalf("BuildFromStore failed: %v", err)
	}
	if index.Len() != 2 {
		t.Errorf("Expected 2 indexed points, got %d", index.Len())
	}
}
