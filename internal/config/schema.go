package config

// Config holds triage configuration.
// Stored at: ~/.triage/config.yaml (or --config override).
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	GitHub       GitHubCfg                 `mapstructure:"github" yaml:"github"`
	Triage       TriageCfg                 `mapstructure:"triage" yaml:"triage"`
}

// LLMProviderCfg configures an LLM provider. Exactly one provider must be
// enabled; SelectProvider enforces that at startup.
type LLMProviderCfg struct {
	Type           string  `mapstructure:"type" yaml:"type"`                       // "openrouter", "openai"
	Model          string  `mapstructure:"model" yaml:"model"`                     // Model name
	APIKey         string  `mapstructure:"api_key" yaml:"api_key"`                 // API key (supports ${ENV_VAR} syntax)
	RateLimit      float64 `mapstructure:"rate_limit" yaml:"rate_limit"`           // Requests per minute
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"` // Per-call HTTP timeout
	MaxRetries     int     `mapstructure:"max_retries" yaml:"max_retries"`         // Transport retries inside one call
	Enabled        bool    `mapstructure:"enabled" yaml:"enabled"`
}

// GitHubCfg configures the REST collaborators.
type GitHubCfg struct {
	Token   string `mapstructure:"token" yaml:"token"`       // Supports ${ENV_VAR} syntax
	BaseURL string `mapstructure:"base_url" yaml:"base_url"` // Override for GitHub Enterprise / tests
}

// TriageCfg holds classification defaults.
type TriageCfg struct {
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	// RecordCalls enables JSONL attempt logging under the home directory.
	RecordCalls bool `mapstructure:"record_calls" yaml:"record_calls"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"openrouter": {
				Type:      "openrouter",
				Model:     "anthropic/claude-3.5-sonnet",
				APIKey:    "${OPENROUTER_API_KEY}",
				RateLimit: 60,
				Enabled:   true,
			},
			"openai": {
				Type:      "openai",
				Model:     "gpt-4o-mini",
				APIKey:    "${OPENAI_API_KEY}",
				RateLimit: 60,
				Enabled:   false,
			},
		},
		GitHub: GitHubCfg{
			Token: "${GITHUB_TOKEN}",
		},
		Triage: TriageCfg{
			Temperature: 0.1,
			MaxTokens:   2048,
			RecordCalls: true,
		},
	}
}
