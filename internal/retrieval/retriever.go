package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dineshram0212/bank-transaction-agent/internal/store"
	"github.com/dineshram0212/bank-transaction-agent/internal/vector"
)

// TextFetcher looks up the free-text portion of records by row identifier.
// *store.Store satisfies it.
type TextFetcher interface {
	FetchTexts(ctx context.Context, uids []int64) ([]store.TxnText, error)
}

// Hints are the semantic context injected into the system prompt: unique
// merchant names ordered by similarity and a sorted set of description
// keywords. Both are recomputed once per user turn and never cached across
// turns.
type Hints struct {
	Merchants []string
	Keywords  []string
}

// Retriever narrows the merchant names and description keywords offered to
// the model to those semantically near the user's query, scoped to one
// client.
type Retriever struct {
	embedder vector.Embedder
	index    vector.Index
	fetcher  TextFetcher
	topK     int
}

func NewRetriever(embedder vector.Embedder, index vector.Index, fetcher TextFetcher, topK int) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		fetcher:  fetcher,
		topK:     topK,
	}
}

// Retrieve embeds the stop-word-filtered query, finds the client's topK
// nearest transactions, and derives merchant and keyword hints from their
// text. No candidates means no semantic hints, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query, clientID string) (*Hints, error) {
	cleaned := RemoveStopwords(query)

	vectors, err := r.embedder.Embed(ctx, []string{cleaned})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	uids, err := r.index.Search(ctx, vectors[0], clientID, r.topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if len(uids) == 0 {
		return &Hints{}, nil
	}

	texts, err := r.fetcher.FetchTexts(ctx, uids)
	if err != nil {
		return nil, fmt.Errorf("fetch matched texts: %w", err)
	}

	return deriveHints(texts), nil
}

// deriveHints lower-cases and trims merchant names, de-duplicating while
// preserving first-seen (similarity) order, and splits cleaned descriptions
// into a keyword set.
func deriveHints(texts []store.TxnText) *Hints {
	hints := &Hints{}

	seenMerchants := make(map[string]struct{})
	keywords := make(map[string]struct{})

	for _, t := range texts {
		merchant := strings.TrimSpace(strings.ToLower(t.Merchant))
		if merchant != "" {
			if _, ok := seenMerchants[merchant]; !ok {
				seenMerchants[merchant] = struct{}{}
				hints.Merchants = append(hints.Merchants, merchant)
			}
		}

		for _, word := range strings.Fields(CleanText(t.Desc)) {
			keywords[word] = struct{}{}
		}
	}

	hints.Keywords = make([]string, 0, len(keywords))
	for w := range keywords {
		hints.Keywords = append(hints.Keywords, w)
	}
	sort.Strings(hints.Keywords)

	return hints
}
