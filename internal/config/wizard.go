package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .dona.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to dona! Let's configure your bot.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openrouter", "openai", "anthropic"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	// 2. Model.
	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: DefaultModel(cfg.Provider),
	}
	cfg.Model, err = modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. SQLite database path.
	dbPrompt := promptui.Prompt{
		Label:   "SQLite database path",
		Default: cfg.DBPath,
	}
	cfg.DBPath, err = dbPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("db path: %w", err)
	}

	// 4. Redis URL (optional fast-cache layer).
	redisPrompt := promptui.Prompt{
		Label:   "Redis URL (leave blank to run without the session cache)",
		Default: "",
	}
	cfg.RedisURL, err = redisPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}

	// 5. HTTP port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("port must be a number between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 6. Default communication style for new users.
	stylePrompt := promptui.Select{
		Label: "Default communication style",
		Items: []string{"casual", "formal"},
	}
	_, cfg.Preferences.CommunicationStyle, err = stylePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("communication style: %w", err)
	}

	// Check for API key.
	envVar := APIKeyEnvVar(cfg.Provider)
	if envVar != "" {
		if os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before starting the bot.\n", envVar)
		}
	}
	if os.Getenv("SLACK_SIGNING_SECRET") == "" {
		fmt.Println("Note: Set SLACK_SIGNING_SECRET and SLACK_BOT_TOKEN to connect the Slack app.")
	}

	// Save to .dona.yml.
	if err := cfg.Save(DefaultPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", DefaultPath)
	return cfg, nil
}
