package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"catalogsync/internal/application"
	"catalogsync/internal/application/commands"
	"catalogsync/internal/domain"
)

// RegisterReadTools adds the read-only tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, t *Tools) {
	s.AddTool(listTool(), t.listHandler)
	s.AddTool(lookupTool(), t.lookupHandler)
}

// --- list ---

func listTool() mcp.Tool {
	return mcp.NewTool("list",
		mcp.WithDescription("List catalog rows. Without a path lists subjects. A path of selected ids (subject,package,theme,knowledge) lists the children of the last one. Browse mode shows each source row next to its paired target row."),
		mcp.WithString("path",
			mcp.Description("Comma-separated ids from the subject down, e.g. 1,11. Omit to list subjects."),
		),
		mcp.WithString("mode",
			mcp.Description("browse (default) or compare. compare lists target catalog rows under a path of target ids and marks those already paired."),
		),
	)
}

func (t *Tools) listHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := commands.ParseIDs("path", req.GetString("path", ""))
	if err != nil {
		return toolError(err)
	}
	mode := application.ModeBrowse
	switch strings.ToLower(req.GetString("mode", "browse")) {
	case "browse", "":
	case "compare":
		mode = application.ModeManualCompare
	default:
		return toolError(fmt.Errorf("unknown mode %q (expected browse or compare)", req.GetString("mode", "")))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	view, err := commands.NewViewCommand(t.session, path, mode).Execute(ctx)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(formatView(view)), nil
}

// --- lookup ---

func lookupTool() mcp.Tool {
	return mcp.NewTool("lookup",
		mcp.WithDescription("Find the item paired with a catalog item."),
		mcp.WithString("layer",
			mcp.Description("Subject, Package, Theme or Knowledge"),
			mcp.Required(),
		),
		mcp.WithNumber("id",
			mcp.Description("Item id"),
			mcp.Required(),
		),
		mcp.WithBoolean("mirror",
			mcp.Description("Treat id as a target catalog item and return its source peer"),
		),
	)
}

func (t *Tools) lookupHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	layer, err := layerArg(req)
	if err != nil {
		return toolError(err)
	}
	id := req.GetInt("id", domain.NoID)
	if id < 0 {
		return toolError(fmt.Errorf("id is required"))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	res, err := commands.NewLookupCommand(t.session.Pairs(), layer, id, req.GetBool("mirror", false)).Execute(ctx)
	if err != nil {
		return toolError(err)
	}
	if !res.Paired {
		return mcp.NewToolResultText(fmt.Sprintf("%s %d is not paired", res.Layer, res.ID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s %d is paired with %d", res.Layer, res.ID, res.PeerID)), nil
}

// --- helpers ---

func formatView(view *application.View) string {
	var sb strings.Builder
	switch view.Mode {
	case application.ModeManualCompare:
		if len(view.Target) == 0 {
			return "No results."
		}
		for _, r := range view.Target {
			fmt.Fprintf(&sb, "%d  %s%s\n", r.ID, r.Row.Name(), stateSuffix(r.State))
		}
	default:
		if len(view.Source) == 0 {
			return "No results."
		}
		for i, src := range view.Source {
			fmt.Fprintf(&sb, "%d  %s", src.ID, src.Row.Name())
			if src.Ratio != "" {
				fmt.Fprintf(&sb, "  [%s]", src.Ratio)
			}
			if i < len(view.Target) && view.Target[i].ID != domain.NoID {
				tgt := view.Target[i]
				fmt.Fprintf(&sb, "  =>  %d  %s%s", tgt.ID, tgt.Row.Name(), stateSuffix(tgt.State))
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func stateSuffix(state application.RowState) string {
	switch state {
	case application.RowSynced:
		return "  (paired)"
	case application.RowDeleted:
		return "  (deleted)"
	default:
		return ""
	}
}

func formatProposal(res *commands.SyncResult) string {
	p := res.Proposal
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", p.Layer, p.Status)
	if p.Status == application.StatusProposed {
		fmt.Fprintf(&sb, " (%d new)", p.NewMatches)
	}
	sb.WriteByte('\n')

	for i, m := range p.Matches {
		switch m.Kind {
		case application.MatchTentative:
			mark := "declined"
			if m.Accepted {
				mark = "accepted"
			}
			fmt.Fprintf(&sb, "%d  %d => %d  %s  score %.3f  %s\n", i, m.SourceID, m.TargetID, m.Row.Name(), m.Score, mark)
		case application.MatchExisting:
			fmt.Fprintf(&sb, "%d  %d => %d  %s  (paired)\n", i, m.SourceID, m.TargetID, m.Row.Name())
		default:
			fmt.Fprintf(&sb, "%d  %d  no match\n", i, m.SourceID)
		}
	}
	for i, c := range p.Choices {
		fmt.Fprintf(&sb, "choice %d  %d  %s  score %.3f\n", i, c.TargetID, c.Row.Name(), c.Score)
	}

	if res.Confirmed {
		fmt.Fprintf(&sb, "Saved %d pair(s).\n", res.Saved)
	}
	return sb.String()
}
