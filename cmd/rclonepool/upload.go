package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var uploadOverwrite bool

var uploadCommand = &cobra.Command{
	Use:   "upload <local-path> <remote-path>",
	Short: "Chunk and upload a local file into the pool",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		p, _, err := loadPool(ctx)
		if err != nil {
			fail(err)
		}
		m, err := p.Upload(ctx, args[0], args[1], uploadOverwrite, float64(time.Now().Unix()))
		if err != nil {
			fail(err)
		}
		cmd.Printf("uploaded %s (%d bytes, %d chunks)\n", m.FilePath, m.FileSize, m.ChunkCount)
	},
}

func init() {
	uploadCommand.Flags().BoolVar(&uploadOverwrite, "overwrite", false, "replace an existing file at the destination path")
	rootCommand.AddCommand(uploadCommand)
}
