// Package ingest loads transaction CSV exports into the record store and
// builds the vector index over their text.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dineshram0212/bank-transaction-agent/internal/logger"
	"github.com/dineshram0212/bank-transaction-agent/internal/retrieval"
	"github.com/dineshram0212/bank-transaction-agent/internal/store"
	"github.com/dineshram0212/bank-transaction-agent/internal/vector"
)

// embedBatchSize bounds one embedding request.
const embedBatchSize = 500

// collectionEnsurer is implemented by index backends that need the vector
// dimension to create their collection, such as Qdrant.
type collectionEnsurer interface {
	EnsureCollection(ctx context.Context, dim uint64) error
}

// Indexer wires the record store, embedder, and index together for loading.
type Indexer struct {
	store    *store.Store
	embedder vector.Embedder
	index    vector.Index
}

func NewIndexer(st *store.Store, embedder vector.Embedder, index vector.Index) *Indexer {
	return &Indexer{store: st, embedder: embedder, index: index}
}

// LoadCSV parses a transactions CSV. Expected header columns: clnt_id,
// bank_id, acc_id, txn_id, txn_date, desc, amt, cat, merchant. The row
// position becomes the stable uid used as the retrieval key. Dates are
// normalized to YYYY-MM-DD.
func LoadCSV(path string) ([]store.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"clnt_id", "txn_date", "amt"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("csv is missing required column %q", required)
		}
	}

	field := func(record []string, name string) string {
		if i, ok := col[name]; ok && i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	var txns []store.Transaction
	for uid := int64(0); ; uid++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", uid+1, err)
		}

		amt, err := strconv.ParseFloat(field(record, "amt"), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad amount %q", uid+1, field(record, "amt"))
		}

		txns = append(txns, store.Transaction{
			UID:      uid,
			ClientID: field(record, "clnt_id"),
			BankID:   field(record, "bank_id"),
			AccID:    field(record, "acc_id"),
			TxnID:    field(record, "txn_id"),
			Date:     normalizeDate(field(record, "txn_date")),
			Desc:     field(record, "desc"),
			Amount:   amt,
			Category: field(record, "cat"),
			Merchant: field(record, "merchant"),
		})
	}

	return txns, nil
}

// normalizeDate converts YYYY/MM/DD exports to the stored YYYY-MM-DD form
// so range filters compare lexicographically.
func normalizeDate(d string) string {
	return strings.ReplaceAll(d, "/", "-")
}

// Run loads the CSV into the record store and indexes its text.
func (ix *Indexer) Run(ctx context.Context, csvPath string) error {
	txns, err := LoadCSV(csvPath)
	if err != nil {
		return err
	}
	logger.Info().Int("transactions", len(txns)).Str("path", csvPath).Msg("loaded csv")

	if err := ix.store.Insert(ctx, txns); err != nil {
		return fmt.Errorf("insert transactions: %w", err)
	}

	return ix.indexTransactions(ctx, txns)
}

// BuildFromStore indexes every transaction already in the record store.
// Used at startup with the in-memory backend, which does not persist.
func (ix *Indexer) BuildFromStore(ctx context.Context) error {
	txns, err := ix.store.FetchAll(ctx)
	if err != nil {
		return err
	}
	return ix.indexTransactions(ctx, txns)
}

// indexTransactions embeds the combined cleaned description and merchant
// text of each transaction and upserts the vectors. Rows whose combined
// text duplicates an earlier row are skipped: they would embed identically
// and add nothing to retrieval.
func (ix *Indexer) indexTransactions(ctx context.Context, txns []store.Transaction) error {
	seen := make(map[string]struct{}, len(txns))
	var uids []int64
	var clients []string
	var texts []string

	for _, t := range txns {
		combined := strings.TrimSpace(retrieval.CleanText(t.Desc) + " " + retrieval.CleanText(t.Merchant))
		if combined == "" {
			continue
		}
		if _, dup := seen[combined]; dup {
			continue
		}
		seen[combined] = struct{}{}
		uids = append(uids, t.UID)
		clients = append(clients, t.ClientID)
		texts = append(texts, combined)
	}

	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := ix.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return fmt.Errorf("embed batch at %d: %w", start, err)
		}

		// The vector dimension is only known once the first batch is
		// embedded; backends that manage collections bootstrap here.
		if start == 0 && len(vectors) > 0 {
			if ce, ok := ix.index.(collectionEnsurer); ok {
				if err := ce.EnsureCollection(ctx, uint64(len(vectors[0]))); err != nil {
					return fmt.Errorf("ensure collection: %w", err)
				}
			}
		}

		points := make([]vector.Point, len(vectors))
		for i, v := range vectors {
			points[i] = vector.Point{
				UID:      uids[start+i],
				ClientID: clients[start+i],
				Vector:   v,
			}
		}
		if err := ix.index.Upsert(ctx, points); err != nil {
			return fmt.Errorf("upsert batch at %d: %w", start, err)
		}

		logger.Debug().Int("from", start).Int("to", end).Msg("indexed batch")
	}

	logger.Info().Int("indexed", len(texts)).Msg("vector index built")
	return nil
}
