package config

// defaultModels maps each provider to the model used when none is
// configured.
var defaultModels = map[ProviderType]string{
	ProviderOpenRouter: "meta-llama/llama-3.3-8b-instruct:free",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderAnthropic:  "claude-haiku-4-5-20251001",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DBPath:                   "dona.db",
		RedisURL:                 "",
		Port:                     8080,
		Provider:                 ProviderOpenRouter,
		Model:                    defaultModels[ProviderOpenRouter],
		RateLimitRPM:             20,
		SessionTTLMinutes:        30,
		ContextTTLMinutes:        10,
		PlainLookbackHours:       2,
		IntelligentLookbackHours: 4,
		RetentionDays:            90,
		Preferences: PreferencesConfig{
			CommunicationStyle: "casual",
			Language:           "es",
			Timezone:           "UTC-5",
			Notifications:      true,
		},
	}
}

// DefaultModel returns the default model for the given provider. Unknown
// providers get the OpenRouter default.
func DefaultModel(provider ProviderType) string {
	if m, ok := defaultModels[provider]; ok {
		return m
	}
	return defaultModels[ProviderOpenRouter]
}
