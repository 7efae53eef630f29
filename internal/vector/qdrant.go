package vector

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantIndex stores transaction embeddings in a Qdrant collection with the
// owning client recorded as a payload field, so searches can filter
// server-side.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
}

// QdrantOptions holds connection settings for NewQdrantIndex.
type QdrantOptions struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
	UseTLS     bool
}

// NewQdrantIndex connects to Qdrant over gRPC.
func NewQdrantIndex(opts QdrantOptions) (*QdrantIndex, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   opts.Host,
		Port:   opts.Port,
		APIKey: opts.APIKey,
		UseTLS: opts.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &QdrantIndex{client: client, collection: opts.Collection}, nil
}

// EnsureCollection creates the collection with cosine distance when it does
// not already exist. dim must match the embedder's output size.
func (q *QdrantIndex) EnsureCollection(ctx context.Context, dim uint64) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dim,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

func (q *QdrantIndex) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	qPoints := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		qPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(p.UID)),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{"client_id": p.ClientID}),
		}
	}

	wait := true
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         qPoints,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	return nil
}

func (q *QdrantIndex) Search(ctx context.Context, vector []float32, clientID string, topK int) ([]int64, error) {
	if topK <= 0 {
		return nil, nil
	}

	limit := uint64(topK)
	scored, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("client_id", clientID),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}

	uids := make([]int64, 0, len(scored))
	for _, p := range scored {
		uids = append(uids, int64(p.GetId().GetNum()))
	}
	return uids, nil
}
