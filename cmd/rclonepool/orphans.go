package main

import (
	"context"

	"github.com/spf13/cobra"
)

var orphansDelete bool

var orphansCommand = &cobra.Command{
	Use:   "orphans",
	Short: "List (and optionally delete) remote objects no manifest references",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		p, _, err := loadPool(ctx)
		if err != nil {
			fail(err)
		}
		orphans, err := p.Orphans(ctx, orphansDelete)
		if err != nil {
			fail(err)
		}
		for _, o := range orphans {
			cmd.Printf("%s%s\n", o.Remote, o.Path)
		}
		cmd.Printf("%d orphan(s)\n", len(orphans))
	},
}

func init() {
	orphansCommand.Flags().BoolVar(&orphansDelete, "delete", false, "remove each orphan as it's found")
	rootCommand.AddCommand(orphansCommand)
}
