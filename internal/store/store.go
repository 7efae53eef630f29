package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Transaction is one bank transaction record. Amount sign is the sole
// direction signal: negative is spend, positive is income.
type Transaction struct {
	UID      int64
	ClientID string
	BankID   string
	AccID    string
	TxnID    string
	// Date is stored as YYYY-MM-DD so range filters compare lexicographically.
	Date     string
	Desc     string
	Amount   float64
	Category string
	Merchant string
}

// TxnText is the free-text portion of a record, fetched for retrieval.
type TxnText struct {
	UID      int64
	Desc     string
	Merchant string
}

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	uid      INTEGER PRIMARY KEY,
	clnt_id  TEXT NOT NULL,
	bank_id  TEXT,
	acc_id   TEXT,
	txn_id   TEXT,
	txn_date TEXT,
	"desc"   TEXT,
	amt      REAL,
	cat      TEXT,
	merchant TEXT
);
CREATE INDEX IF NOT EXISTS idx_transactions_clnt ON transactions (clnt_id);
`

// Store is the transaction record store, backed by SQLite. It is treated as
// read-only during a conversation, so no locking beyond database/sql's own
// is needed.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database and ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ClientExists reports whether any transaction belongs to the given client.
func (s *Store) ClientExists(ctx context.Context, clientID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM transactions WHERE clnt_id = ? LIMIT 1)", clientID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check client: %w", err)
	}
	return exists, nil
}

// Insert writes a batch of transactions inside one database transaction.
func (s *Store) Insert(ctx context.Context, txns []Transaction) error {
	if len(txns) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (uid, clnt_id, bank_id, acc_id, txn_id, txn_date, "desc", amt, cat, merchant)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txns {
		if _, err := stmt.ExecContext(ctx,
			t.UID, t.ClientID, t.BankID, t.AccID, t.TxnID, t.Date, t.Desc, t.Amount, t.Category, t.Merchant,
		); err != nil {
			return fmt.Errorf("insert uid %d: %w", t.UID, err)
		}
	}

	return tx.Commit()
}

// FetchAll returns every transaction, ordered by uid. Used when building an
// in-process vector index.
func (s *Store) FetchAll(ctx context.Context) ([]Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT uid, clnt_id, bank_id, acc_id, txn_id, txn_date, "desc", amt, cat, merchant
		FROM transactions ORDER BY uid`)
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.UID, &t.ClientID, &t.BankID, &t.AccID, &t.TxnID, &t.Date, &t.Desc, &t.Amount, &t.Category, &t.Merchant); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// FetchTexts returns the description and merchant text for the given row
// identifiers.
func (s *Store) FetchTexts(ctx context.Context, uids []int64) ([]TxnText, error) {
	if len(uids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(uids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(uids))
	for i, uid := range uids {
		args[i] = uid
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT uid, "desc", merchant FROM transactions WHERE uid IN (%s)`, placeholders),
		args...)
	if err != nil {
		return nil, fmt.Errorf("fetch texts: %w", err)
	}
	defer rows.Close()

	byUID := make(map[int64]TxnText, len(uids))
	for rows.Next() {
		var t TxnText
		if err := rows.Scan(&t.UID, &t.Desc, &t.Merchant); err != nil {
			return nil, fmt.Errorf("scan text: %w", err)
		}
		byUID[t.UID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Preserve the caller's similarity ordering.
	out := make([]TxnText, 0, len(byUID))
	for _, uid := range uids {
		if t, ok := byUID[uid]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// RunAggregation compiles the spec into one parameterized aggregation query
// scoped to clientID and executes it. Validation problems are returned as an
// error before anything touches the database; execution failures come back
// inside the QueryResult so the model can see the failing query and revise.
func (s *Store) RunAggregation(ctx context.Context, spec QuerySpec, clientID string) (*QueryResult, error) {
	query, args, err := Compile(spec, clientID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return &QueryResult{Err: err.Error(), Query: query}, nil
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return &QueryResult{Err: err.Error(), Query: query}, nil
	}

	result := &QueryResult{Columns: cols, Rows: []map[string]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		for i := range vals {
			vals[i] = new(any)
		}
		if err := rows.Scan(vals...); err != nil {
			return &QueryResult{Err: err.Error(), Query: query}, nil
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = *(vals[i].(*any))
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return &QueryResult{Err: err.Error(), Query: query}, nil
	}

	return result, nil
}
