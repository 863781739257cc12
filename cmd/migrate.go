package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cppla/matlog/services"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Import a legacy local session export for one user",
	Long: "Reads a JSON array of legacy sessions (date, type, level, points, group_id) and " +
		"upserts it into the user's account. Running it twice with the same file is safe.",
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().String("user", "", "User id to import for")
	migrateCmd.Flags().String("file", "", "Path to the exported session list")
	_ = migrateCmd.MarkFlagRequired("user")
	_ = migrateCmd.MarkFlagRequired("file")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("user")
	path, _ := cmd.Flags().GetString("file")

	records, err := readLegacyExport(path)
	if err != nil {
		return err
	}

	rt, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer rt.svc.Tracker.Close()

	result, err := rt.svc.Migration.Migrate(cmd.Context(), userID, records)
	for _, re := range result.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "record %d: %s\n", re.Index, re.Reason)
	}
	if err != nil {
		return err
	}
	// sync right away; the debounced write would not outlive the process
	rt.svc.Leaderboard.Stop()
	if err := rt.svc.Leaderboard.SyncNow(cmd.Context(), userID); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "leaderboard sync failed: %v\n", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d sessions for %s\n", result.Imported, userID)
	return nil
}

func readLegacyExport(path string) ([]services.LegacySession, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	var records []services.LegacySession
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}
	if records == nil {
		return nil, errors.New("export is not a session list")
	}
	return records, nil
}
