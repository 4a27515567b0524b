package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show how many pairs are stored per layer",
	Long: `Show the catalogs being synchronized and how many pairs are stored
between them at each layer. Knowledge counts include specific knowledge.

Examples:
  catalogsync-cli status
  catalogsync-cli status --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetApp()
		counts, err := a.PairCounts(context.Background())
		if err != nil {
			return err
		}
		source, target := a.CatalogNames()
		if jsonOutput {
			return writeJSON(cmd, map[string]any{
				"source": source,
				"target": target,
				"layers": counts,
			})
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", source, target)
		rows := make([][]string, 0, len(counts))
		for _, c := range counts {
			rows = append(rows, []string{c.Name, strconv.Itoa(c.Pairs)})
		}
		printTable(cmd, []string{"Layer", "Pairs"}, rows, []columnAlignment{alignLeft, alignRight})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
