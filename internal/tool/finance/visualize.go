package finance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dineshram0212/bank-transaction-agent/internal/chart"
	"github.com/dineshram0212/bank-transaction-agent/internal/store"
	"github.com/dineshram0212/bank-transaction-agent/internal/tool"
)

// ChartDataKey is where VisualizeTool places the rendered *chart.Chart in
// Result.Data for the dispatcher to pick up.
const ChartDataKey = "chart"

// VisualizeArgKeys is the fixed allow-list of model-supplied argument names
// for visualize_data. The dispatcher strips everything else and injects the
// data argument itself.
var VisualizeArgKeys = []string{"chart_type", "x", "y", "title"}

// VisualizeTool renders the most recent query result as a chart. The data
// argument is never model-supplied: the dispatcher injects the prior
// query_sql result of the current turn.
type VisualizeTool struct{}

func NewVisualizeTool() *VisualizeTool {
	return &VisualizeTool{}
}

func (t *VisualizeTool) Name() string {
	return "visualize_data"
}

func (t *VisualizeTool) Description() string {
	return "Generate a visualization based on extracted structured transaction results."
}

func (t *VisualizeTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"chart_type": map[string]any{
				"type":        "string",
				"enum":        []string{"bar", "line", "area", "pie"},
				"description": "The type of chart to generate.",
			},
			"x": map[string]any{
				"type":        "string",
				"description": "Field to use on X-axis",
			},
			"y": map[string]any{
				"type":        "string",
				"description": "Field to use on Y-axis",
			},
			"title": map[string]any{
				"type":        "string",
				"description": "Title of the chart",
			},
		},
		"required": []string{"chart_type", "x", "y"},
	}
}

type visualizeArgs struct {
	ChartType string             `json:"chart_type"`
	X         string             `json:"x"`
	Y         string             `json:"y"`
	Title     string             `json:"title"`
	Data      *store.QueryResult `json:"data"`
}

func (t *VisualizeTool) Execute(ctx context.Context, params json.RawMessage) (*tool.Result, error) {
	var args visualizeArgs
	if err := json.Unmarshal(params, &args); err != nil {
		return &tool.Result{Success: false, Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}

	if args.Data == nil {
		return &tool.Result{Success: false, Error: "No data to visualize."}, nil
	}

	c, err := chart.Render(args.Data, chart.Kind(args.ChartType), args.X, args.Y, args.Title)
	if err != nil {
		return &tool.Result{Success: false, Error: err.Error()}, nil
	}

	return &tool.Result{
		Success: true,
		Output:  "Chart generated",
		Data:    map[string]any{ChartDataKey: c},
	}, nil
}
