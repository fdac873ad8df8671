package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/puffious/rclone-pool/internal/pool"
)

var verifyFull bool

var verifyCommand = &cobra.Command{
	Use:   "verify [path]",
	Short: "Check a file's chunks (or every file) against their manifests",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		p, _, err := loadPool(ctx)
		if err != nil {
			fail(err)
		}
		mode := pool.VerifyQuick
		if verifyFull {
			mode = pool.VerifyFull
		}

		paths := args
		if len(paths) == 0 {
			summaries, err := p.List(ctx, "/")
			if err != nil {
				fail(err)
			}
			for _, s := range summaries {
				paths = append(paths, s.FilePath)
			}
		}

		anyBroken := false
		for _, path := range paths {
			report, err := p.Verify(ctx, path, mode)
			if err != nil {
				fail(err)
			}
			if len(report.Missing) == 0 && len(report.WrongSize) == 0 {
				cmd.Printf("ok    %s\n", path)
				continue
			}
			anyBroken = true
			cmd.Printf("BROKEN %s: %d missing, %d wrong-size\n", path, len(report.Missing), len(report.WrongSize))
		}
		if anyBroken {
			os.Exit(exitPartial)
		}
	},
}

func init() {
	verifyCommand.Flags().BoolVar(&verifyFull, "full", false, "fetch and compare chunk length instead of just checking presence")
	rootCommand.AddCommand(verifyCommand)
}
