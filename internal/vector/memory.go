package vector

import (
	"context"
	"sort"
	"sync"
)

// MemoryIndex is a brute-force cosine index for single-binary deployments
// and tests. Vectors are assumed normalized, so similarity is a dot product.
type MemoryIndex struct {
	mu     sync.RWMutex
	points map[int64]Point
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{points: make(map[int64]Point)}
}

func (m *MemoryIndex) Upsert(_ context.Context, points []Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range points {
		m.points[p.UID] = p
	}
	return nil
}

// Len reports the number of indexed points.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points)
}

func (m *MemoryIndex) Search(_ context.Context, vector []float32, clientID string, topK int) ([]int64, error) {
	if topK <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		uid   int64
		score float32
	}
	candidates := make([]scored, 0, len(m.points))
	for _, p := range m.points {
		if p.ClientID != clientID {
			continue
		}
		candidates = append(candidates, scored{uid: p.UID, score: dot(vector, p.Vector)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].uid < candidates[j].uid
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	uids := make([]int64, len(candidates))
	for i, c := range candidates {
		uids[i] = c.uid
	}
	return uids, nil
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
