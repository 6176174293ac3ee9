package mcp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"toponav/internal/app"
	"toponav/internal/application/commands"
)

// RegisterRunTools adds the tools that process recordings: graph building,
// node ranking and localization.
func RegisterRunTools(s *server.MCPServer, a *app.App) {
	s.AddTool(buildGraphTool(), buildGraphHandler(a))
	s.AddTool(rankNodesTool(), rankNodesHandler(a))
	s.AddTool(localizeTool(), localizeHandler(a))
}

// --- build_graph ---

func buildGraphTool() mcp.Tool {
	return mcp.NewTool("build_graph",
		mcp.WithDescription("Build the floor-map graph from a YAML manifest of recorded frame directories, replacing the stored graph."),
		mcp.WithString("manifest",
			mcp.Description("Path to the manifest file"),
			mcp.Required(),
		),
	)
}

func buildGraphHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		manifest, err := req.RequireString("manifest")
		if err != nil {
			return toolError(err)
		}

		result, err := a.Build(ctx, manifest)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- rank_nodes ---

func rankNodesTool() mcp.Tool {
	return mcp.NewTool("rank_nodes",
		mcp.WithDescription("Rank graph nodes against the first keyframes of a recording. Best guess of where the recording starts."),
		mcp.WithString("frames_dir",
			mcp.Description("Directory of recorded frames"),
			mcp.Required(),
		),
		mcp.WithNumber("seeds",
			mcp.Description("Number of seed keyframes (default 3)"),
		),
	)
}

func rankNodesHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dir, err := req.RequireString("frames_dir")
		if err != nil {
			return toolError(err)
		}
		seeds := req.GetInt("seeds", 3)

		g, err := a.Store.LoadGraph(ctx)
		if err != nil {
			return toolError(err)
		}
		extract, src, err := a.Extract(dir)
		if err != nil {
			return toolError(err)
		}
		defer src.Close()

		seq, _, err := extract.ExtractSequence(ctx)
		if err != nil {
			return toolError(err)
		}
		frames := seq.Frames()
		if len(frames) > seeds {
			frames = frames[:seeds]
		}

		rank := commands.NewRankNodesCommand(g, a.Oracle, frames, a.Logger)
		rank.Threshold = a.Config.Localize.NodeThreshold
		result, err := rank.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(result.Scores, func(s commands.NodeScore) string {
			return fmt.Sprintf("node %d  matches=%d  score=%.3f", s.Node.ID, s.Matches, s.Total)
		})
	}
}

// --- localize ---

func localizeTool() mcp.Tool {
	return mcp.NewTool("localize",
		mcp.WithDescription("Follow a recording along the graph edges and return the matched path, one 'edge src_dst' line per hop."),
		mcp.WithString("frames_dir",
			mcp.Description("Directory of recorded frames"),
			mcp.Required(),
		),
		mcp.WithString("start_nodes",
			mcp.Description("Comma-separated node identities to start from, skipping node ranking (e.g. 0,6)"),
		),
		mcp.WithBoolean("record",
			mcp.Description("Store the query keyframes as a new run"),
		),
	)
}

func localizeHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dir, err := req.RequireString("frames_dir")
		if err != nil {
			return toolError(err)
		}
		start, err := parseNodeList(req.GetString("start_nodes", ""))
		if err != nil {
			return toolError(err)
		}

		localize, src, err := a.Localize(ctx, dir, req.GetBool("record", false))
		if err != nil {
			return toolError(err)
		}
		defer src.Close()
		if len(start) > 0 {
			localize.Options.StartNodes = start
		}

		return localizeResult(localize.Execute(ctx))
	}
}

// localizeResult renders the matched path. A run that failed after
// resolving some edges reports the error together with that partial path.
func localizeResult(result *commands.LocalizeResult, err error) (*mcp.CallToolResult, error) {
	if err != nil && (result == nil || len(result.Path) == 0) {
		return toolError(err)
	}

	var text string
	if result != nil {
		text = result.Path.Render()
		if text == "" {
			text = "No edge could be followed.\n"
		}
		if result.RunID != "" {
			text += "run " + result.RunID + "\n"
		}
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%v\npartial path:\n%s", err, text)), nil
	}
	return mcp.NewToolResultText(text), nil
}

func parseNodeList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ids []int
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid node identity %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
