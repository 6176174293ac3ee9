package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"toponav/internal/domain"
	"toponav/internal/ports"
)

// RegisterReadTools adds the graph inspection tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, store ports.GraphStore) {
	s.AddTool(listNodesTool(), listNodesHandler(store))
	s.AddTool(listEdgesTool(), listEdgesHandler(store))
	s.AddTool(getNodeTool(), getNodeHandler(store))
}

// --- list_nodes ---

func listNodesTool() mcp.Tool {
	return mcp.NewTool("list_nodes",
		mcp.WithDescription("List the landmark nodes of the floor-map graph with their reference keyframe and outgoing edge counts."),
	)
}

func listNodesHandler(store ports.GraphStore) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		g, err := store.LoadGraph(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(g.Nodes(), formatNode)
	}
}

// --- list_edges ---

func listEdgesTool() mcp.Tool {
	return mcp.NewTool("list_edges",
		mcp.WithDescription("List the edges of the floor-map graph as src_dst with their keyframe counts."),
	)
}

func listEdgesHandler(store ports.GraphStore) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		g, err := store.LoadGraph(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(g.Edges(), formatEdge)
	}
}

// --- get_node ---

func getNodeTool() mcp.Tool {
	return mcp.NewTool("get_node",
		mcp.WithDescription("Describe one node: its reference keyframes and outgoing edges."),
		mcp.WithNumber("id",
			mcp.Description("Node identity"),
			mcp.Required(),
		),
	)
}

func getNodeHandler(store ports.GraphStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("id")
		if err != nil {
			return toolError(err)
		}

		g, err := store.LoadGraph(ctx)
		if err != nil {
			return toolError(err)
		}
		n, err := g.Node(domain.NodeID(id))
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "node %d\n", n.ID)
		fmt.Fprintf(&sb, "references: %d keyframes", n.References.Len())
		for _, kf := range n.References.Frames() {
			fmt.Fprintf(&sb, " %d", kf.Index)
		}
		sb.WriteByte('\n')
		for _, e := range n.Links {
			sb.WriteString(formatEdge(e))
			sb.WriteByte('\n')
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatEntities[T any](entities []T, format func(T) string) (*mcp.CallToolResult, error) {
	if len(entities) == 0 {
		return mcp.NewToolResultText("No results."), nil
	}
	var sb strings.Builder
	for _, e := range entities {
		sb.WriteString(format(e))
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatNode(n *domain.Node) string {
	return fmt.Sprintf("%d  references=%d  edges=%d", n.ID, n.References.Len(), len(n.Links))
}

func formatEdge(e *domain.Edge) string {
	if !e.Traceable() {
		return fmt.Sprintf("edge %s  untraceable", e.Name())
	}
	return fmt.Sprintf("edge %s  keyframes=%d", e.Name(), e.KeyFrames.Len())
}
