package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var lsCommand = &cobra.Command{
	Use:   "ls [dir]",
	Short: "List files under a pool directory",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := "/"
		if len(args) == 1 {
			dir = args[0]
		}
		ctx := context.Background()
		p, _, err := loadPool(ctx)
		if err != nil {
			fail(err)
		}
		summaries, err := p.List(ctx, dir)
		if err != nil {
			fail(err)
		}
		for _, s := range summaries {
			cmd.Printf("%-40s %10d bytes  %3d chunks  %s\n",
				s.FilePath, s.FileSize, s.ChunkCount, time.Unix(int64(s.CreatedAt), 0).Format(time.RFC3339))
		}
	},
}

func init() {
	rootCommand.AddCommand(lsCommand)
}
