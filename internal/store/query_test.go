package store

import (
	"errors"
	"strings"
	"testing"
)

func TestCompile_InvalidAggregation(t *testing.T) {
	_, _, err := Compile(QuerySpec{Aggregation: "median"}, "c1")
	if !errors.Is(err, ErrInvalidAggregation) {
		t.Errorf("Expected ErrInvalidAggregation, got: %v", err)
	}

	_, _, err = Compile(QuerySpec{}, "c1")
	if !errors.Is(err, ErrInvalidAggregation) {
		t.Errorf("Expected ErrInvalidAggregation for empty aggregation, got: %v", err)
	}
}

func TestCompile_InvalidDirection(t *testing.T) {
	_, _, err := Compile(QuerySpec{Aggregation: "sum", Direction: "sideways"}, "c1")
	if !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("Expected ErrInvalidDirection, got: %v", err)
	}
}

func TestCompile_InvalidGroupBy(t *testing.T) {
	_, _, err := Compile(QuerySpec{
		Aggregation: "sum",
		GroupBy:     []string{"cat", "clnt_id"},
	}, "c1")
	if !errors.Is(err, ErrInvalidGroupBy) {
		t.Errorf("Expected ErrInvalidGroupBy, got: %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "clnt_id") {
		t.Errorf("Error should name the offending column, got: %v", err)
	}
}

func TestCompile_AlwaysScopedToClient(t *testing.T) {
	query, args, err := Compile(QuerySpec{Aggregation: "count"}, "client-42")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if !strings.Contains(query, "clnt_id = ?") {
		t.Errorf("Query must filter on client id: %s", query)
	}
	if len(args) != 1 || args[0] != "client-42" {
		t.Errorf("Expected single client id arg, got: %v", args)
	}
	if strings.Contains(query, "client-42") {
		t.Errorf("Client id must be bound, not inlined: %s", query)
	}
}

func TestCompile_ValuesAreParameterized(t *testing.T) {
	spec := QuerySpec{
		Aggregation:  "sum",
		StartDate:    "2024-01-01",
		EndDate:      "2024-03-31",
		Category:     "groceries",
		Merchants:    []string{"Tesco", " Asda "},
		Descriptions: []string{"coffee"},
		Limit:        5,
	}
	query, args, err := Compile(spec, "c1")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	for _, v := range []string{"2024-01-01", "groceries", "tesco", "coffee"} {
		if strings.Contains(query, v) {
			t.Errorf("Value %q appeared inline in SQL: %s", v, query)
		}
	}

	// client + 2 dates + category + 2 merchants + 1 description + limit
	if len(args) != 8 {
		t.Fatalf("Expected 8 bound args, got %d: %v", len(args), args)
	}

	// Merchant values are lowercased and trimmed before binding.
	if args[4] != "tesco" || args[5] != "asda" {
		t.Errorf("Merchant args should be normalized, got: %v %v", args[4], args[5])
	}
	// Description values are wrapped for substring matching.
	if args[6] != "%coffee%" {
		t.Errorf("Description arg should be a LIKE pattern, got: %v", args[6])
	}
	if args[7] != 5 {
		t.Errorf("Limit should be the last bound arg, got: %v", args[7])
	}
}

func TestCompile_DirectionClauses(t *testing.T) {
	tests := []struct {
		direction string
		want      string
		absent    string
	}{
		{"spend", "amt < 0", "amt > 0"},
		{"income", "amt > 0", "amt < 0"},
		{"both", "", "amt <"},
		{"", "", "amt <"},
		{"SPEND", "amt < 0", "amt > 0"},
	}
	for _, tt := range tests {
		query, _, err := Compile(QuerySpec{Aggregation: "count", Direction: tt.direction}, "c1")
		if err != nil {
			t.Fatalf("Compile(%q) failed: %v", tt.direction, err)
		}
		if tt.want != "" && !strings.Contains(query, tt.want) {
			t.Errorf("direction %q: expected %q in %s", tt.direction, tt.want, query)
		}
		if tt.absent != "" && strings.Contains(query, tt.absent) {
			t.Errorf("direction %q: did not expect %q in %s", tt.direction, tt.absent, query)
		}
	}
}

func TestCompile_GroupByShape(t *testing.T) {
	query, _, err := Compile(QuerySpec{
		Aggregation: "avg",
		GroupBy:     []string{"cat", "desc"},
	}, "c1")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if !strings.HasPrefix(query, `SELECT cat, "desc", AVG(amt) FROM transactions`) {
		t.Errorf("Unexpected select clause: %s", query)
	}
	if !strings.HasSuffix(query, `GROUP BY cat, "desc"`) {
		t.Errorf("Unexpected group clause: %s", query)
	}
}

func TestCompile_MerchantMatchIsCaseInsensitive(t *testing.T) {
	query, _, err := Compile(QuerySpec{
		Aggregation: "sum",
		Merchants:   []string{"Netflix"},
	}, "c1")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !strings.Contains(query, "LOWER(merchant) IN (?)") {
		t.Errorf("Expected case-insensitive merchant clause, got: %s", query)
	}
}

func TestCompile_DescriptionsAreORed(t *testing.T) {
	query, _, err := Compile(QuerySpec{
		Aggregation:  "count",
		Descriptions: []string{"uber", "lyft"},
	}, "c1")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !strings.Contains(query, `(LOWER("desc") LIKE ? OR LOWER("desc") LIKE ?)`) {
		t.Errorf("Expected OR-joined description clause, got: %s", query)
	}
}
