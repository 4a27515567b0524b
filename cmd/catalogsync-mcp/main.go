package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcpadapter "catalogsync/internal/adapters/mcp"
	"catalogsync/internal/app"
	"catalogsync/internal/config"
	"catalogsync/internal/logging"
)

func main() {
	configFlag := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	cfg, _, _, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("catalogsync-mcp: load config: %v", err)
	}

	// stdout carries the protocol, so records go to the log file or stderr
	logger, closer, err := logging.NewFromConfig(cfg, os.Stderr)
	if err != nil {
		log.Fatalf("catalogsync-mcp: init logging: %v", err)
	}
	defer closer.Close()

	a, err := app.Open(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("catalogsync-mcp: %v", err)
	}
	defer a.Close()

	mcpServer := server.NewMCPServer(
		"catalogsync-mcp",
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

	mcpadapter.Register(mcpServer, a.Session)

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error("serve stdio", "error", err)
		a.Close()
		closer.Close()
		os.Exit(1)
	}
}
