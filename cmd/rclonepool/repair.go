package main

import (
	"context"

	"github.com/spf13/cobra"
)

var repairCommand = &cobra.Command{
	Use:   "repair <remote-path> <local-source>",
	Short: "Re-upload missing or corrupt chunks for a file from a local copy",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		p, _, err := loadPool(ctx)
		if err != nil {
			fail(err)
		}
		m, err := p.Repair(ctx, args[0], args[1])
		if err != nil {
			fail(err)
		}
		cmd.Printf("repaired %s (%d chunks)\n", m.FilePath, m.ChunkCount)
	},
}

func init() {
	rootCommand.AddCommand(repairCommand)
}
