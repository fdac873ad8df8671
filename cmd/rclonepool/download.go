package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var downloadCommand = &cobra.Command{
	Use:   "download <remote-path> <local-path>",
	Short: "Fetch a pool file and reassemble it on local disk",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		p, _, err := loadPool(ctx)
		if err != nil {
			fail(err)
		}
		out, err := os.Create(args[1])
		if err != nil {
			fail(err)
		}
		defer out.Close()
		if err := p.Download(ctx, args[0], out); err != nil {
			fail(err)
		}
	},
}

func init() {
	rootCommand.AddCommand(downloadCommand)
}
