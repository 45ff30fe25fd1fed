package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/opentriage/triage/internal/providers"
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	viper.SetDefault("llm_providers", defaults.LLMProviders)
	viper.SetDefault("github", defaults.GitHub)
	viper.SetDefault("triage", defaults.Triage)

	// Environment variables with TRIAGE_ prefix
	viper.SetEnvPrefix("TRIAGE")
	viper.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.triage")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	viper.WatchConfig()
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// SelectProvider resolves the single enabled LLM provider. Zero or more
// than one enabled provider is a startup-time fatal condition: the repair
// loop never falls back across providers mid-run, so an ambiguous
// selection must fail loudly here instead.
func (c *Config) SelectProvider() (string, providers.ClientConfig, error) {
	var enabled []string
	for name, p := range c.LLMProviders {
		if p.Enabled {
			enabled = append(enabled, name)
		}
	}
	sort.Strings(enabled)

	switch len(enabled) {
	case 0:
		return "", providers.ClientConfig{}, fmt.Errorf("no LLM provider enabled; enable exactly one in config")
	case 1:
	default:
		return "", providers.ClientConfig{}, fmt.Errorf("multiple LLM providers enabled (%v); enable exactly one", enabled)
	}

	name := enabled[0]
	p := c.LLMProviders[name]

	apiKey := ResolveEnvVars(p.APIKey)
	if apiKey == "" {
		return "", providers.ClientConfig{}, fmt.Errorf("LLM provider %q has no API key (check %s)", name, p.APIKey)
	}

	return name, providers.ClientConfig{
		Type:       p.Type,
		Model:      p.Model,
		APIKey:     apiKey,
		RateLimit:  p.RateLimit,
		Timeout:    time.Duration(p.TimeoutSeconds) * time.Second,
		MaxRetries: p.MaxRetries,
	}, nil
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Triage configuration
# API keys use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell: export OPENROUTER_API_KEY=xxx GITHUB_TOKEN=xxx
# Enable exactly one llm_provider.

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
