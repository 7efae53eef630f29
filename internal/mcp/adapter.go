package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dineshram0212/bank-transaction-agent/internal/tool"
)

// ToolAdapter exposes an MCP tool through the registry's Tool interface
// under a server-namespaced name.
type ToolAdapter struct {
	client         *Client
	mcpTool        *mcp.Tool
	namespacedName string // e.g. "rates_convert_currency"
}

func NewToolAdapter(client *Client, mcpTool *mcp.Tool) *ToolAdapter {
	return &ToolAdapter{
		client:         client,
		mcpTool:        mcpTool,
		namespacedName: fmt.Sprintf("%s_%s", client.Name(), mcpTool.Name),
	}
}

func (a *ToolAdapter) Name() string {
	return a.namespacedName
}

func (a *ToolAdapter) Description() string {
	desc := a.mcpTool.Description
	if desc == "" {
		desc = fmt.Sprintf("MCP tool from %s server", a.client.Name())
	}
	return fmt.Sprintf("%s\n\n[MCP Server: %s]", desc, a.client.Name())
}

func (a *ToolAdapter) Parameters() map[string]any {
	emptySchema := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}

	if a.mcpTool.InputSchema == nil {
		return emptySchema
	}

	// The SDK exposes the schema as `any`; round-trip it through JSON when
	// it is not already a map.
	if schema, ok := a.mcpTool.InputSchema.(map[string]any); ok {
		return schema
	}

	schemaBytes, err := json.Marshal(a.mcpTool.InputSchema)
	if err != nil {
		return emptySchema
	}
	var schema map[string]any
	if err := json.Unmarshal(schemaBytes, &schema); err != nil {
		return emptySchema
	}
	return schema
}

func (a *ToolAdapter) Execute(ctx context.Context, params json.RawMessage) (*tool.Result, error) {
	var args map[string]any
	if err := json.Unmarshal(params, &args); err != nil {
		return &tool.Result{
			Success: false,
			Error:   fmt.Sprintf("invalid parameters: %v", err),
		}, nil
	}

	result, err := a.client.CallTool(ctx, a.mcpTool.Name, args)
	if err != nil {
		return &tool.Result{
			Success: false,
			Error:   fmt.Sprintf("MCP tool execution failed: %v", err),
		}, nil
	}

	if result.IsError {
		msg := formatContent(result.Content)
		if msg == "" {
			msg = "MCP tool returned an error"
		}
		return &tool.Result{Success: false, Error: msg}, nil
	}

	return &tool.Result{
		Success: true,
		Output:  formatContent(result.Content),
	}, nil
}

// formatContent flattens an MCP content list to text.
func formatContent(content []mcp.Content) string {
	var parts []string

	for _, item := range content {
		switch c := item.(type) {
		case *mcp.TextContent:
			parts = append(parts, c.Text)
		case *mcp.ImageContent:
			parts = append(parts, fmt.Sprintf("[Image: %s]", c.MIMEType))
		case *mcp.AudioContent:
			parts = append(parts, fmt.Sprintf("[Audio: %s]", c.MIMEType))
		default:
			data, err := json.Marshal(item)
			if err != nil {
				parts = append(parts, fmt.Sprintf("[Unknown content type: %T]", item))
			} else {
				parts = append(parts, string(data))
			}
		}
	}

	return strings.Join(parts, "\n")
}
