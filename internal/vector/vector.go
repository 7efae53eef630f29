package vector

import "context"

// Embedder encodes text into fixed-size vectors. Implementations must return
// unit-length vectors so similarity reduces to a dot product.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Point is one indexed transaction text: the record's stable row index, the
// owning client, and its embedding.
type Point struct {
	UID      int64
	ClientID string
	Vector   []float32
}

// Index answers top-K nearest-neighbor queries restricted to one client.
type Index interface {
	Upsert(ctx context.Context, points []Point) error
	// Search returns up to topK row identifiers ordered by similarity,
	// considering only points owned by clientID.
	Search(ctx context.Context, vector []float32, clientID string, topK int) ([]int64, error)
}
