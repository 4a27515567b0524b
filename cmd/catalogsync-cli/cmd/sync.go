package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"catalogsync/internal/application"
	"catalogsync/internal/application/commands"
)

var (
	syncConfirm bool
	syncDecline string
	syncChoice  int
)

type matchJSON struct {
	Row      int     `json:"row"`
	SourceID int     `json:"source_id"`
	TargetID *int    `json:"target_id,omitempty"`
	Target   string  `json:"target,omitempty"`
	Score    float64 `json:"score,omitempty"`
	Kind     string  `json:"kind"`
	Accepted bool    `json:"accepted"`
}

type syncJSON struct {
	Layer      string      `json:"layer"`
	Status     string      `json:"status"`
	NewMatches int         `json:"new_matches"`
	Matches    []matchJSON `json:"matches,omitempty"`
	Choices    []matchJSON `json:"choices,omitempty"`
	Saved      int         `json:"saved"`
	Confirmed  bool        `json:"confirmed"`
}

var syncCmd = &cobra.Command{
	Use:   "sync <path>",
	Short: "Propose pairs for the rows below a path",
	Long: `Ask the search index for target candidates of every unpaired row
below a path of source ids. The proposal is printed and only saved with
--confirm.

A path of four ids selects a single knowledge record; its candidates are
printed as numbered choices and --choice saves one of them.

Examples:
  catalogsync-cli sync 1
  catalogsync-cli sync 1,11 --confirm --decline 2,5
  catalogsync-cli sync 1,11,21,31
  catalogsync-cli sync 1,11,21,31 --confirm --choice 0`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := commands.ParseIDs("path", args[0])
		if err != nil {
			return err
		}
		decline, err := commands.ParseIDs("decline", syncDecline)
		if err != nil {
			return err
		}

		syncCommand := commands.NewSyncCommand(GetApp().Session, path)
		syncCommand.DryRun = !syncConfirm
		syncCommand.Decline = decline
		syncCommand.Choice = syncChoice
		result, err := syncCommand.Execute(context.Background())
		if err != nil {
			return err
		}

		if jsonOutput {
			return writeJSON(cmd, syncToJSON(result))
		}
		printSyncResult(cmd, result)
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncConfirm, "confirm", false, "save the accepted proposal")
	syncCmd.Flags().StringVar(&syncDecline, "decline", "", "comma separated proposal rows to decline")
	syncCmd.Flags().IntVar(&syncChoice, "choice", commands.NoChoice, "choice to save for a single knowledge record")
	rootCmd.AddCommand(syncCmd)
}

func kindName(k application.MatchKind) string {
	switch k {
	case application.MatchExisting:
		return "paired"
	case application.MatchTentative:
		return "new"
	default:
		return "unmatched"
	}
}

func matchesToJSON(matches []application.Match) []matchJSON {
	out := make([]matchJSON, 0, len(matches))
	for i, m := range matches {
		j := matchJSON{Row: i, SourceID: m.SourceID, Kind: kindName(m.Kind), Accepted: m.Accepted, Score: m.Score}
		if m.Kind != application.MatchUnmatched {
			id := m.TargetID
			j.TargetID = &id
			j.Target = m.Row.Name()
		}
		out = append(out, j)
	}
	return out
}

func syncToJSON(r *commands.SyncResult) syncJSON {
	p := r.Proposal
	out := syncJSON{
		Layer:      p.Layer.String(),
		Status:     p.Status.String(),
		NewMatches: p.NewMatches,
		Saved:      r.Saved,
		Confirmed:  r.Confirmed,
	}
	if p.Layer.IsLeaf() {
		out.Choices = matchesToJSON(p.Choices)
	} else {
		out.Matches = matchesToJSON(p.Matches)
	}
	return out
}

func printSyncResult(cmd *cobra.Command, r *commands.SyncResult) {
	p := r.Proposal
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s (%d new)\n", p.Layer, p.Status, p.NewMatches)

	matches := p.Matches
	first := "Row"
	if p.Layer.IsLeaf() {
		matches = p.Choices
		first = "Choice"
	}
	if len(matches) > 0 {
		rows := make([][]string, 0, len(matches))
		for i, m := range matches {
			row := []string{strconv.Itoa(i), strconv.Itoa(m.SourceID), "", "", "", kindName(m.Kind)}
			if m.Kind != application.MatchUnmatched {
				row[2] = strconv.Itoa(m.TargetID)
				row[3] = m.Row.Name()
			}
			if m.Kind == application.MatchTentative {
				row[4] = strconv.FormatFloat(m.Score, 'f', 3, 64)
				if !p.Layer.IsLeaf() && !m.Accepted {
					row[5] = "declined"
				}
			}
			rows = append(rows, row)
		}
		printTable(cmd,
			[]string{first, "Source ID", "Target ID", "Target", "Score", "State"},
			rows,
			[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignRight, alignLeft},
		)
	}

	switch {
	case r.Confirmed:
		fmt.Fprintf(out, "Saved %d pair(s).\n", r.Saved)
	case p.Status == application.StatusProposed:
		fmt.Fprintln(out, "Nothing saved; rerun with --confirm to save.")
	}
}
