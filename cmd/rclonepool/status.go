package main

import (
	"context"

	"github.com/spf13/cobra"
)

var statusCommand = &cobra.Command{
	Use:   "status",
	Short: "Show per-remote usage and eligibility",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		p, _, err := loadPool(ctx)
		if err != nil {
			fail(err)
		}
		for _, u := range p.Status() {
			eligible := "eligible"
			if !u.Eligible {
				eligible = "full"
			}
			cmd.Printf("%-30s used=%-12d free=%-12d %s\n", u.Remote, u.Used, u.Free, eligible)
		}
	},
}

func init() {
	rootCommand.AddCommand(statusCommand)
}
