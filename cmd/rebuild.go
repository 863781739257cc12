package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Recompute leaderboard rows from sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		group, _ := cmd.Flags().GetString("group")
		rt, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer rt.svc.Close()

		synced, err := rt.svc.Leaderboard.Rebuild(cmd.Context(), group)
		fmt.Fprintf(cmd.OutOrStdout(), "synced %d members\n", synced)
		return err
	},
}

func init() {
	rebuildCmd.Flags().String("group", "", "Only rebuild members of this group")
}
