package store

import (
	"errors"
	"fmt"
	"strings"
)

// QuerySpec is the structured, model-supplied argument set for the
// aggregation tool. The client identifier is deliberately absent: it is
// always injected by the caller, never taken from the model.
type QuerySpec struct {
	Aggregation  string   `json:"aggregation"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
	Direction    string   `json:"direction,omitempty"`
	Category     string   `json:"category,omitempty"`
	Merchants    []string `json:"merchants,omitempty"`
	Descriptions []string `json:"descriptions,omitempty"`
	GroupBy      []string `json:"group_by,omitempty"`
	Limit        int      `json:"limit,omitempty"`
}

// QueryResult is the outcome of one aggregation query. Callers must check
// Err before using Rows. Query carries the failing SQL for diagnostics.
type QueryResult struct {
	Columns []string         `json:"columns,omitempty"`
	Rows    []map[string]any `json:"rows,omitempty"`
	Err     string           `json:"error,omitempty"`
	Query   string           `json:"query,omitempty"`
}

var (
	ErrInvalidAggregation = errors.New("invalid aggregation type: must be 'sum', 'count', 'avg', 'max', or 'min'")
	ErrInvalidDirection   = errors.New("invalid direction: must be 'spend', 'income', or 'both'")
	ErrInvalidGroupBy     = errors.New("invalid group by column(s)")
)

// aggregations maps the aggregation kind to its value expression. This is
// the only way a caller selects what gets computed.
var aggregations = map[string]string{
	"sum":   "SUM(amt)",
	"count": "COUNT(*)",
	"avg":   "AVG(amt)",
	"max":   "MAX(amt)",
	"min":   "MIN(amt)",
}

// allowedGroupColumns is the fixed allow-list of storage columns usable in
// GROUP BY. Quoting matters for "desc", which is an SQL keyword.
var allowedGroupColumns = map[string]string{
	"bank_id":  "bank_id",
	"acc_id":   "acc_id",
	"txn_id":   "txn_id",
	"txn_date": "txn_date",
	"desc":     `"desc"`,
	"amt":      "amt",
	"cat":      "cat",
	"merchant": "merchant",
}

// Compile turns a validated spec into one parameterized SELECT. Every
// user-influenced value is bound as a parameter; only the fixed column and
// aggregation vocabulary appears as literal SQL.
func Compile(spec QuerySpec, clientID string) (string, []any, error) {
	agg, ok := aggregations[spec.Aggregation]
	if !ok {
		return "", nil, ErrInvalidAggregation
	}

	where := []string{"clnt_id = ?"}
	args := []any{clientID}

	if spec.StartDate != "" {
		where = append(where, "txn_date >= ?")
		args = append(args, spec.StartDate)
	}
	if spec.EndDate != "" {
		where = append(where, "txn_date <= ?")
		args = append(args, spec.EndDate)
	}

	switch strings.ToLower(spec.Direction) {
	case "spend":
		where = append(where, "amt < 0")
	case "income":
		where = append(where, "amt > 0")
	case "both", "":
	default:
		return "", nil, ErrInvalidDirection
	}

	if spec.Category != "" {
		where = append(where, "cat = ?")
		args = append(args, spec.Category)
	}

	if len(spec.Merchants) > 0 {
		placeholders := make([]string, len(spec.Merchants))
		for i, m := range spec.Merchants {
			placeholders[i] = "?"
			args = append(args, strings.ToLower(strings.TrimSpace(m)))
		}
		where = append(where, fmt.Sprintf("LOWER(merchant) IN (%s)", strings.Join(placeholders, ", ")))
	}

	if len(spec.Descriptions) > 0 {
		likes := make([]string, len(spec.Descriptions))
		for i, d := range spec.Descriptions {
			likes[i] = `LOWER("desc") LIKE ?`
			args = append(args, "%"+strings.ToLower(d)+"%")
		}
		where = append(where, "("+strings.Join(likes, " OR ")+")")
	}

	selectFields := agg
	groupClause := ""
	if len(spec.GroupBy) > 0 {
		cols := make([]string, 0, len(spec.GroupBy))
		for _, col := range spec.GroupBy {
			quoted, ok := allowedGroupColumns[col]
			if !ok {
				// A single disallowed column invalidates the whole request
				// rather than being silently dropped.
				return "", nil, fmt.Errorf("%w: %s", ErrInvalidGroupBy, col)
			}
			cols = append(cols, quoted)
		}
		groupClause = " GROUP BY " + strings.Join(cols, ", ")
		selectFields = strings.Join(append(cols, agg), ", ")
	}

	query := fmt.Sprintf("SELECT %s FROM transactions WHERE %s%s",
		selectFields, strings.Join(where, " AND "), groupClause)

	if spec.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, spec.Limit)
	}

	return query, args, nil
}
