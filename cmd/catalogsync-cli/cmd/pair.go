package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"catalogsync/internal/application/commands"
	"catalogsync/internal/domain"
)

var lookupMirror bool

func parseLayerAndIDs(args []string) (domain.Layer, []int, error) {
	layer, err := domain.ParseLayer(args[0])
	if err != nil {
		return 0, nil, err
	}
	ids := make([]int, 0, len(args)-1)
	for _, a := range args[1:] {
		id, err := strconv.Atoi(a)
		if err != nil {
			return 0, nil, fmt.Errorf("invalid id %q", a)
		}
		ids = append(ids, id)
	}
	return layer, ids, nil
}

var pairCmd = &cobra.Command{
	Use:   "pair <layer> <source-id> <target-id>",
	Short: "Pair a source item with a target item",
	Long: `Pair a source catalog item with a target catalog item.

Examples:
  catalogsync-cli pair subject 1 100
  catalogsync-cli pair knowledge 31 310`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		layer, ids, err := parseLayerAndIDs(args)
		if err != nil {
			return err
		}
		if err := commands.NewPairCommand(GetApp().Session, layer, ids[0], ids[1]).Execute(context.Background()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Paired %s %d with %d\n", layer, ids[0], ids[1])
		return nil
	},
}

var unpairCmd = &cobra.Command{
	Use:   "unpair <layer> <source-id>",
	Short: "Remove the pair of a source item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		layer, ids, err := parseLayerAndIDs(args)
		if err != nil {
			return err
		}
		if err := commands.NewUnpairCommand(GetApp().Session, layer, ids[0]).Execute(context.Background()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Unpaired %s %d\n", layer, ids[0])
		return nil
	},
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <layer> <id>",
	Short: "Show the item paired with an item",
	Long: `Show the target item paired with a source item, or with --mirror the
source item paired with a target item.

Examples:
  catalogsync-cli lookup theme 21
  catalogsync-cli lookup theme 210 --mirror`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		layer, ids, err := parseLayerAndIDs(args)
		if err != nil {
			return err
		}
		res, err := commands.NewLookupCommand(GetApp().Session.Pairs(), layer, ids[0], lookupMirror).Execute(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd, res)
		}
		if !res.Paired {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d is not paired\n", res.Layer, res.ID)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d => %d\n", res.Layer, res.ID, res.PeerID)
		return nil
	},
}

func init() {
	lookupCmd.Flags().BoolVar(&lookupMirror, "mirror", false, "look up a target item")
	rootCmd.AddCommand(pairCmd)
	rootCmd.AddCommand(unpairCmd)
	rootCmd.AddCommand(lookupCmd)
}
