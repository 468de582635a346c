package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hvergara/dona/internal/bots"
	"github.com/hvergara/dona/internal/config"
	"github.com/hvergara/dona/internal/memory"
	"github.com/hvergara/dona/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bot server",
	Long:  `Starts the HTTP server that receives Slack events, assembles conversation context, and replies through the configured LLM provider.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, cache, mgr, err := openMemory(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		responder := createResponderFromConfig(cfg)
		if envVar := config.APIKeyEnvVar(cfg.Provider); envVar != "" && os.Getenv(envVar) == "" {
			fmt.Fprintf(os.Stderr, "Warning: %s is not set; the bot will answer with the not-configured message.\n", envVar)
		}

		processor := bots.NewProcessor(mgr, responder, string(cfg.Provider), cfg.Model)
		gateway := bots.NewGateway(processor)
		slackHandler := bots.NewSlackHandler(gateway, cfg.Slack.SigningSecret)

		port := cfg.Port
		if servePort != 0 {
			port = servePort
		}

		srv := server.New(server.Config{
			Port:     port,
			DataDir:  filepath.Dir(cfg.DBPath),
			AllowAll: true,
		}, database, mgr, cache)

		r := srv.Router()
		memory.RegisterRoutes(r, mgr)
		bots.RegisterRoutes(r, slackHandler)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "dona v%s starting on port %d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", cfg.DBPath)
		if cfg.RedisURL != "" {
			fmt.Fprintf(os.Stderr, "  Redis: %s\n", cfg.RedisURL)
		} else {
			fmt.Fprintln(os.Stderr, "  Redis: disabled (running on SQLite only)")
		}
		fmt.Fprintf(os.Stderr, "  Provider: %s (%s)\n", cfg.Provider, cfg.Model)

		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
