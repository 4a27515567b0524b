package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"catalogsync/internal/application/commands"
	"catalogsync/internal/domain"
)

// RegisterWriteTools adds the tools that change pairs to the MCP server.
func RegisterWriteTools(s *server.MCPServer, t *Tools) {
	s.AddTool(proposeTool(), t.proposeHandler)
	s.AddTool(pairTool(), t.pairHandler)
	s.AddTool(unpairTool(), t.unpairHandler)
	s.AddTool(switchRolesTool(), t.switchRolesHandler)
}

// --- propose ---

func proposeTool() mcp.Tool {
	return mcp.NewTool("propose",
		mcp.WithDescription("Propose pairs for the unpaired rows below a path using the search index. Nothing is saved unless confirm is true. A path of four ids targets a single knowledge record and returns numbered choices."),
		mcp.WithString("path",
			mcp.Description("Comma-separated source ids from the subject down; at least the subject"),
			mcp.Required(),
		),
		mcp.WithBoolean("confirm",
			mcp.Description("Save the accepted proposal"),
		),
		mcp.WithString("decline",
			mcp.Description("Comma-separated proposal rows to decline before confirming"),
		),
		mcp.WithNumber("choice",
			mcp.Description("Choice to save for a single knowledge record"),
		),
	)
}

func (t *Tools) proposeHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := commands.ParseIDs("path", req.GetString("path", ""))
	if err != nil {
		return toolError(err)
	}
	decline, err := commands.ParseIDs("decline", req.GetString("decline", ""))
	if err != nil {
		return toolError(err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cmd := commands.NewSyncCommand(t.session, path)
	cmd.DryRun = !req.GetBool("confirm", false)
	if !cmd.DryRun {
		cmd.Decline = decline
		cmd.Choice = req.GetInt("choice", commands.NoChoice)
	}
	res, err := cmd.Execute(ctx)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(formatProposal(res)), nil
}

// --- pair ---

func pairTool() mcp.Tool {
	return mcp.NewTool("pair",
		mcp.WithDescription("Pair a source catalog item with a target catalog item."),
		mcp.WithString("layer",
			mcp.Description("Subject, Package, Theme or Knowledge"),
			mcp.Required(),
		),
		mcp.WithNumber("source_id",
			mcp.Description("Source catalog item id"),
			mcp.Required(),
		),
		mcp.WithNumber("target_id",
			mcp.Description("Target catalog item id"),
			mcp.Required(),
		),
	)
}

func (t *Tools) pairHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	layer, err := layerArg(req)
	if err != nil {
		return toolError(err)
	}
	sourceID := req.GetInt("source_id", domain.NoID)
	targetID := req.GetInt("target_id", domain.NoID)

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := commands.NewPairCommand(t.session, layer, sourceID, targetID).Execute(ctx); err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Paired %s %d with %d", layer, sourceID, targetID)), nil
}

// --- unpair ---

func unpairTool() mcp.Tool {
	return mcp.NewTool("unpair",
		mcp.WithDescription("Remove the pair of a source catalog item."),
		mcp.WithString("layer",
			mcp.Description("Subject, Package, Theme or Knowledge"),
			mcp.Required(),
		),
		mcp.WithNumber("source_id",
			mcp.Description("Source catalog item id"),
			mcp.Required(),
		),
	)
}

func (t *Tools) unpairHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	layer, err := layerArg(req)
	if err != nil {
		return toolError(err)
	}
	sourceID := req.GetInt("source_id", domain.NoID)

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := commands.NewUnpairCommand(t.session, layer, sourceID).Execute(ctx); err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Unpaired %s %d", layer, sourceID)), nil
}

// --- switch_roles ---

func switchRolesTool() mcp.Tool {
	return mcp.NewTool("switch_roles",
		mcp.WithDescription("Swap the source and target catalogs for subsequent calls."),
	)
}

func (t *Tools) switchRolesHandler(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.session.SwitchRoles()
	return mcp.NewToolResultText("Source and target catalogs switched."), nil
}
