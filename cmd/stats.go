package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show memory statistics",
	Long:  `Prints user and conversation counts from the durable store, plus realtime session numbers when Redis is reachable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, _, mgr, err := openMemory(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		stats, err := mgr.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("collecting stats: %w", err)
		}

		fmt.Printf("Users:           %d\n", stats.Store.TotalUsers)
		fmt.Printf("Conversations:   %d\n", stats.Store.TotalTurns)
		fmt.Printf("Active contexts: %d\n", stats.Store.ActiveContexts)
		fmt.Printf("Database size:   %.1f KB\n", float64(stats.Store.SizeBytes)/1024)

		if stats.Realtime != nil {
			fmt.Printf("Live sessions:   %d\n", stats.Realtime.ActiveSessions)
			fmt.Printf("Messages today:  %d\n", stats.Realtime.MessagesToday)
			fmt.Printf("Active users:    %d\n", stats.Realtime.ActiveUsers)
		} else {
			fmt.Println("Realtime stats:  unavailable (Redis not reachable)")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
