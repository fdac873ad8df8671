package main

import (
	"context"

	"github.com/spf13/cobra"
)

var rmCommand = &cobra.Command{
	Use:   "rm <remote-path>",
	Short: "Delete a pool file and every chunk backing it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		p, _, err := loadPool(ctx)
		if err != nil {
			fail(err)
		}
		if err := p.Delete(ctx, args[0]); err != nil {
			fail(err)
		}
	},
}

func init() {
	rootCommand.AddCommand(rmCommand)
}
