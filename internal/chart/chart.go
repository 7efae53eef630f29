// Package chart renders aggregation query results into standalone HTML
// charts.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/dineshram0212/bank-transaction-agent/internal/store"
)

// Kind enumerates the supported chart kinds.
type Kind string

const (
	KindBar  Kind = "bar"
	KindLine Kind = "line"
	KindArea Kind = "area"
	KindPie  Kind = "pie"
)

var (
	ErrUnsupportedKind = errors.New("unsupported chart type")
	ErrErrorData       = errors.New("cannot visualize data with error")
	ErrNoRows          = errors.New("no data to visualize")
	ErrNoUsableData    = errors.New("no usable data after cleaning, nothing to display")
)

// Chart is the rendered artifact handed back to the UI.
type Chart struct {
	Kind  Kind   `json:"kind"`
	Title string `json:"title"`
	HTML  []byte `json:"html"`
}

type point struct {
	x string
	y float64
}

// Render builds a chart from a query result. When the requested x or y
// fields are absent from the result columns, the first and second columns
// are used instead. Rows whose y value cannot be coerced to a number are
// dropped.
func Render(result *store.QueryResult, kind Kind, x, y, title string) (*Chart, error) {
	switch kind {
	case KindBar, KindLine, KindArea, KindPie:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	if result == nil || result.Err != "" {
		return nil, ErrErrorData
	}
	if len(result.Rows) == 0 {
		return nil, ErrNoRows
	}

	cols := result.Columns
	if !contains(cols, x) && len(cols) > 0 {
		x = cols[0]
	}
	if !contains(cols, y) && len(cols) > 1 {
		y = cols[1]
	}
	// The same column on both axes is allowed: a group-less single-column
	// result charts its lone aggregate against itself.
	if x == "" || y == "" {
		return nil, ErrNoUsableData
	}

	var points []point
	var sum float64
	for _, row := range result.Rows {
		yv, ok := toFloat(row[y])
		if !ok {
			continue
		}
		points = append(points, point{x: fmt.Sprint(row[x]), y: yv})
		sum += yv
	}
	if len(points) == 0 || sum == 0 {
		return nil, ErrNoUsableData
	}

	// Largest values first, matching the reference presentation.
	sort.SliceStable(points, func(i, j int) bool { return points[i].y > points[j].y })

	if kind == KindPie {
		// Negative outflows must not invert slice sizes.
		for i := range points {
			points[i].y = math.Abs(points[i].y)
		}
	}

	if title == "" {
		title = fmt.Sprintf("%s by %s", y, x)
	}

	html, err := render(points, kind, y, title)
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}

	return &Chart{Kind: kind, Title: title, HTML: html}, nil
}

func render(points []point, kind Kind, seriesName, title string) ([]byte, error) {
	xs := make([]string, len(points))
	for i, p := range points {
		xs[i] = p.x
	}

	var buf bytes.Buffer
	switch kind {
	case KindBar:
		bar := charts.NewBar()
		bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: title}))
		items := make([]opts.BarData, len(points))
		for i, p := range points {
			items[i] = opts.BarData{Value: p.y}
		}
		bar.SetXAxis(xs).AddSeries(seriesName, items)
		if err := bar.Render(&buf); err != nil {
			return nil, err
		}

	case KindLine, KindArea:
		line := charts.NewLine()
		line.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: title}))
		items := make([]opts.LineData, len(points))
		for i, p := range points {
			items[i] = opts.LineData{Value: p.y}
		}
		line.SetXAxis(xs).AddSeries(seriesName, items)
		if kind == KindArea {
			line.SetSeriesOptions(charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.4)}))
		}
		if err := line.Render(&buf); err != nil {
			return nil, err
		}

	case KindPie:
		pie := charts.NewPie()
		pie.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: title}))
		items := make([]opts.PieData, len(points))
		for i, p := range points {
			items[i] = opts.PieData{Name: p.x, Value: p.y}
		}
		pie.AddSeries(seriesName, items)
		if err := pie.Render(&buf); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func contains(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
