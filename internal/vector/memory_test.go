package vector

import (
	"context"
	"testing"
)

func seedIndex(t *testing.T) *MemoryIndex {
	t.Helper()
	idx := NewMemoryIndex()
	err := idx.Upsert(context.Background(), []Point{
		{UID: 1, ClientID: "c1", Vector: []float32{1, 0}},
		{UID: 2, ClientID: "c1", Vector: []float32{0.9, 0.1}},
		{UID: 3, ClientID: "c1", Vector: []float32{0, 1}},
		{UID: 4, ClientID: "c2", Vector: []float32{1, 0}},
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	return idx
}

func TestMemoryIndex_Search_OrdersBySimilarity(t *testing.T) {
	idx := seedIndex(t)

	uids, err := idx.Search(context.Background(), []float32{1, 0}, "c1", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	want := []int64{1, 2, 3}
	if len(uids) != len(want) {
		t.Fatalf("Expected %d results, got %d", len(want), len(uids))
	}
	for i, uid := range uids {
		if uid != want[i] {
			t.Errorf("Position %d: expected uid %d, got %d", i, want[i], uid)
		}
	}
}

func TestMemoryIndex_Search_FiltersByClient(t *testing.T) {
	idx := seedIndex(t)

	uids, err := idx.Search(context.Background(), []float32{1, 0}, "c2", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(uids) != 1 || uids[0] != 4 {
		t.Errorf("Expected only uid 4 for c2, got %v", uids)
	}

	uids, err = idx.Search(context.Background(), []float32{1, 0}, "c3", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(uids) != 0 {
		t.Errorf("Expected no results for unknown client, got %v", uids)
	}
}

func TestMemoryIndex_Search_RespectsTopK(t *testing.T) {
	idx := seedIndex(t)

	uids, err := idx.Search(context.Background(), []float32{1, 0}, "c1", 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(uids) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(uids))
	}

	uids, err = idx.Search(context.Background(), []float32{1, 0}, "c1", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(uids) != 0 {
		t.Errorf("Expected no results for topK 0, got %v", uids)
	}
}

func TestMemoryIndex_Upsert_ReplacesExisting(t *testing.T) {
	idx := seedIndex(t)

	err := idx.Upsert(context.Background(), []Point{
		{UID: 3, ClientID: "c1", Vector: []float32{1, 0}},
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if idx.Len() != 4 {
		t.Errorf("Expected 4 points after replacing uid 3, got %d", idx.Len())
	}

	uids, err := idx.Search(context.Background(), []float32{1, 0}, "c1", 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	// uid 1 and the replaced uid 3 now tie; lower uid wins.
	if len(uids) != 1 || uids[0] != 1 {
		t.Errorf("Expected uid 1 as top result, got %v", uids)
	}
}
