package main

import (
	"context"
	"flag"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	mcpadapter "toponav/internal/adapters/mcp"
	"toponav/internal/app"
	"toponav/internal/config"
	"toponav/internal/logging"
)

func main() {
	configFlag := flag.String("config", "", "path to a YAML config file")
	dbFlag := flag.String("db", "", "path to the graph database")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("toponav-mcp: %v", err)
	}
	if *dbFlag != "" {
		cfg.DB = *dbFlag
	}

	// JSON-RPC owns stdout; logs go to stderr
	logger, err := logging.New(cfg.LogLevel, true)
	if err != nil {
		log.Fatalf("toponav-mcp: %v", err)
	}
	defer logger.Sync()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer a.Close()

	mcpServer := server.NewMCPServer(
		"toponav-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, a.Store)
	mcpadapter.RegisterRunTools(mcpServer, a)

	logger.Info("serving MCP on stdio", zap.String("db", cfg.DB))
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
