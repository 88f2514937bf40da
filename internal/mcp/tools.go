package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers every catalog operation on s, each routed through d.
func RegisterTools(s *server.MCPServer, d *Dispatcher) int {
	ops := d.Operations()
	for _, op := range ops {
		s.AddTool(BuildMCPTool(op), ToolHandler(d, op.Name))
	}
	return len(ops)
}

// ToolHandler adapts the dispatcher to an mcp-go handler for one operation.
// An unknown operation surfaces as a handler error, which mcp-go reports as a
// JSON-RPC error rather than a tool result.
func ToolHandler(d *Dispatcher, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		env, err := d.Invoke(ctx, name, r.GetArguments())
		if err != nil {
			return nil, err
		}
		if env.IsError {
			return errorResult(env.Text), nil
		}
		return textResult(env.Text), nil
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// errorResult creates an MCP error result.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
