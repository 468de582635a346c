package cmd

import (
	"fmt"
	"time"

	"github.com/hvergara/dona/internal/config"
	"github.com/hvergara/dona/internal/db"
	"github.com/hvergara/dona/internal/llm"
	"github.com/hvergara/dona/internal/memory"
	"github.com/hvergara/dona/internal/sessioncache"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `dona init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openMemory builds the full memory stack from config: SQLite store,
// optional Redis cache, and the manager on top. The caller owns closing
// the returned database.
func openMemory(cfg *config.Config) (*db.DB, *sessioncache.Cache, *memory.Manager, error) {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening database: %w", err)
	}

	cache := sessioncache.New(cfg.RedisURL,
		time.Duration(cfg.SessionTTLMinutes)*time.Minute,
		time.Duration(cfg.ContextTTLMinutes)*time.Minute)

	store := memory.NewStore(database, cfg.Preferences.AsMap())
	mgr := memory.NewManager(store, cache)
	mgr.SetLookbacks(
		time.Duration(cfg.PlainLookbackHours)*time.Hour,
		time.Duration(cfg.IntelligentLookbackHours)*time.Hour)

	return database, cache, mgr, nil
}

// createResponderFromConfig wires the configured LLM provider into a
// responder. A missing API key is not fatal: the responder degrades to the
// not-configured reply so the rest of the bot keeps working.
func createResponderFromConfig(cfg *config.Config) *llm.Responder {
	provider, err := llm.NewProvider(string(cfg.Provider), "", cfg.Model)
	if err != nil {
		provider = nil
	}
	if provider != nil {
		provider = llm.NewRateLimitedProvider(provider, cfg.RateLimitRPM)
	}
	responder := llm.NewResponder(provider)
	if cfg.SystemPrompt != "" {
		responder.SetSystemPrompt(cfg.SystemPrompt)
	}
	return responder
}
