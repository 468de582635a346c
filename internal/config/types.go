package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderOpenRouter ProviderType = "openrouter"
	ProviderOpenAI     ProviderType = "openai"
	ProviderAnthropic  ProviderType = "anthropic"
)

// Config is the top-level Dona configuration, corresponding to .dona.yml.
type Config struct {
	DBPath   string `yaml:"db_path" koanf:"db_path"`
	RedisURL string `yaml:"redis_url" koanf:"redis_url"`
	Port     int    `yaml:"port" koanf:"port"`

	Provider     ProviderType `yaml:"provider" koanf:"provider"`
	Model        string       `yaml:"model" koanf:"model"`
	SystemPrompt string       `yaml:"system_prompt" koanf:"system_prompt"`
	RateLimitRPM int          `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`

	SessionTTLMinutes        int `yaml:"session_ttl_minutes" koanf:"session_ttl_minutes"`
	ContextTTLMinutes        int `yaml:"context_ttl_minutes" koanf:"context_ttl_minutes"`
	PlainLookbackHours       int `yaml:"plain_lookback_hours" koanf:"plain_lookback_hours"`
	IntelligentLookbackHours int `yaml:"intelligent_lookback_hours" koanf:"intelligent_lookback_hours"`
	RetentionDays            int `yaml:"retention_days" koanf:"retention_days"`

	Slack       SlackConfig       `yaml:"slack" koanf:"slack"`
	Preferences PreferencesConfig `yaml:"preferences" koanf:"preferences"`
}

// SlackConfig holds the Slack app credentials.
type SlackConfig struct {
	BotToken      string `yaml:"bot_token" koanf:"bot_token"`
	SigningSecret string `yaml:"signing_secret" koanf:"signing_secret"`
}

// PreferencesConfig is the default preference set for new users.
type PreferencesConfig struct {
	CommunicationStyle string `yaml:"communication_style" koanf:"communication_style"`
	Language           string `yaml:"language" koanf:"language"`
	Timezone           string `yaml:"timezone" koanf:"timezone"`
	Notifications      bool   `yaml:"notifications" koanf:"notifications"`
}

// AsMap converts the preference defaults to the map shape the store uses.
func (p PreferencesConfig) AsMap() map[string]any {
	return map[string]any{
		"communication_style": p.CommunicationStyle,
		"language":            p.Language,
		"timezone":            p.Timezone,
		"notifications":       p.Notifications,
	}
}
