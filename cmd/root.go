package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hvergara/dona/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dona",
	Short: "Conversational Slack bot with persistent memory",
	Long: `Dona is a conversational Slack bot that remembers. It keeps a durable
conversation log in SQLite, an optional Redis fast tier for live
sessions, and assembles intelligent context for each reply by analyzing
intent, sentiment, and topics of the incoming message.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
