package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"catalogsync/internal/application"
	"catalogsync/internal/application/commands"
)

var compareMode bool

type viewRowJSON struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Ratio    string `json:"ratio,omitempty"`
	TargetID *int   `json:"target_id,omitempty"`
	Target   string `json:"target,omitempty"`
	State    string `json:"state,omitempty"`
}

type viewJSON struct {
	Layer string        `json:"layer"`
	Mode  string        `json:"mode"`
	Rows  []viewRowJSON `json:"rows"`
}

var viewCmd = &cobra.Command{
	Use:   "view [path]",
	Short: "List catalog rows with their pairs",
	Long: `List the rows below a path of source ids next to their paired
target rows.

With --compare the path is read as target ids and the target rows are
listed, marking those that are already paired.

Examples:
  catalogsync-cli view
  catalogsync-cli view 1
  catalogsync-cli view 1,11 --json
  catalogsync-cli view 100 --compare`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw string
		if len(args) == 1 {
			raw = args[0]
		}
		path, err := commands.ParseIDs("path", raw)
		if err != nil {
			return err
		}
		mode := application.ModeBrowse
		if compareMode {
			mode = application.ModeManualCompare
		}

		view, err := commands.NewViewCommand(GetApp().Session, path, mode).Execute(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd, viewToJSON(view))
		}
		if mode == application.ModeManualCompare {
			printCompareView(cmd, view)
			return nil
		}
		printBrowseView(cmd, view)
		return nil
	},
}

func init() {
	viewCmd.Flags().BoolVar(&compareMode, "compare", false, "list target rows under a path of target ids")
	rootCmd.AddCommand(viewCmd)
}

func stateName(state application.RowState) string {
	switch state {
	case application.RowSynced:
		return "paired"
	case application.RowDeleted:
		return "deleted"
	default:
		return ""
	}
}

func viewToJSON(view *application.View) viewJSON {
	out := viewJSON{Layer: view.Layer.String(), Mode: "browse", Rows: []viewRowJSON{}}
	if view.Mode == application.ModeManualCompare {
		out.Mode = "compare"
		for _, r := range view.Target {
			out.Rows = append(out.Rows, viewRowJSON{ID: r.ID, Name: r.Row.Name(), State: stateName(r.State)})
		}
		return out
	}
	for i, src := range view.Source {
		row := viewRowJSON{ID: src.ID, Name: src.Row.Name(), Ratio: src.Ratio}
		if i < len(view.Target) && view.Target[i].State != application.RowNeutral {
			tgt := view.Target[i]
			id := tgt.ID
			row.TargetID = &id
			row.Target = tgt.Row.Name()
			row.State = stateName(tgt.State)
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func printBrowseView(cmd *cobra.Command, view *application.View) {
	rows := make([][]string, 0, len(view.Source))
	for i, src := range view.Source {
		row := []string{strconv.Itoa(src.ID), src.Row.Name(), src.Ratio, "", ""}
		if i < len(view.Target) && view.Target[i].State != application.RowNeutral {
			tgt := view.Target[i]
			row[3] = strconv.Itoa(tgt.ID)
			row[4] = tgt.Row.Name()
		}
		rows = append(rows, row)
	}
	fmt.Fprintln(cmd.OutOrStdout(), view.Layer)
	printTable(cmd,
		[]string{"ID", "Name", "Paired", "Target ID", "Target"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft},
	)
}

func printCompareView(cmd *cobra.Command, view *application.View) {
	rows := make([][]string, 0, len(view.Target))
	for _, r := range view.Target {
		rows = append(rows, []string{strconv.Itoa(r.ID), r.Row.Name(), stateName(r.State)})
	}
	fmt.Fprintln(cmd.OutOrStdout(), view.Layer)
	printTable(cmd,
		[]string{"ID", "Name", "State"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft},
	)
}
