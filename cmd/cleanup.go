package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupDays int

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete conversation history past the retention window",
	Long:  `Removes conversation turns older than the retention window and drops expired context snapshots.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		days := cfg.RetentionDays
		if cleanupDays != 0 {
			days = cleanupDays
		}

		database, _, mgr, err := openMemory(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		res, err := mgr.Purge(context.Background(), days)
		if err != nil {
			return fmt.Errorf("purging history: %w", err)
		}

		fmt.Printf("Deleted %d turns and %d context snapshots older than %d days.\n",
			res.TurnsDeleted, res.ContextsDeleted, days)
		return nil
	},
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 0, "Retention window in days (overrides config)")
	rootCmd.AddCommand(cleanupCmd)
}
