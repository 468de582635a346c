package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hvergara/dona/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize dona configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the bot and generates a .dona.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
