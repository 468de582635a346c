package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hvergara/dona/internal/db"
	"github.com/hvergara/dona/internal/memory"
	"github.com/hvergara/dona/internal/progress"
	"github.com/hvergara/dona/internal/reactivation"
)

var reactivateIdleDays int

var reactivateCmd = &cobra.Command{
	Use:   "reactivate",
	Short: "Draft check-in messages for users who went quiet",
	Long:  `Finds users with no conversation activity in the idle window and prints a draft re-engagement message for each one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		store := memory.NewStore(database, cfg.Preferences.AsMap())
		idleAfter := time.Duration(reactivateIdleDays) * 24 * time.Hour

		job := reactivation.NewJob(store, idleAfter, progress.NewReporter())
		drafts, err := job.Run(context.Background())
		if err != nil {
			return fmt.Errorf("drafting reactivation messages: %w", err)
		}

		if len(drafts) == 0 {
			fmt.Println("No idle users found.")
			return nil
		}

		for _, d := range drafts {
			fmt.Printf("--- %s (last seen %s)\n%s\n\n",
				d.UserID, d.LastSeen.Format("2006-01-02"), d.Text)
		}
		fmt.Printf("%d draft(s) ready.\n", len(drafts))
		return nil
	},
}

func init() {
	reactivateCmd.Flags().IntVar(&reactivateIdleDays, "idle-days", 7, "Days of inactivity before a user counts as idle")
	rootCmd.AddCommand(reactivateCmd)
}
