package main

import (
	"context"

	"github.com/spf13/cobra"
)

var rebalanceDryRun bool

var rebalanceCommand = &cobra.Command{
	Use:   "rebalance",
	Short: "Move chunks off overloaded remotes onto underloaded ones",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		p, _, err := loadPool(ctx)
		if err != nil {
			fail(err)
		}
		migrations, err := p.Rebalance(ctx, rebalanceDryRun)
		if err != nil {
			fail(err)
		}
		for _, m := range migrations {
			cmd.Printf("%s chunk %d: %s -> %s (%d bytes)\n", m.FilePath, m.ChunkIndex, m.FromRemote, m.ToRemote, m.Size)
		}
		if rebalanceDryRun {
			cmd.Printf("%d migration(s) planned (dry run, nothing moved)\n", len(migrations))
		} else {
			cmd.Printf("%d migration(s) applied\n", len(migrations))
		}
	},
}

func init() {
	rebalanceCommand.Flags().BoolVar(&rebalanceDryRun, "dry-run", false, "compute and print the migration plan without moving anything")
	rootCommand.AddCommand(rebalanceCommand)
}
