// Package config loads and validates the mdchat configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultSystemPrompt is the instruction message prepended to every
// conversation before it is sent to a provider.
const DefaultSystemPrompt = "You are a helpful assistant. " +
	"You are conversing through a Markdown document, so format replies as plain Markdown text."

// Config represents the application configuration.
type Config struct {
	LLMProvider  string          `json:"llm_provider"`
	SystemPrompt string          `json:"system_prompt"`
	DryRun       bool            `json:"dry_run"`
	LogLevel     string          `json:"log_level"`
	LogFormat    string          `json:"log_format"`
	LogFile      string          `json:"log_file"`
	Providers    ProvidersConfig `json:"providers"`
}

// ProvidersConfig groups per-provider settings.
type ProvidersConfig struct {
	OpenAI     ProviderConfig   `json:"openai"`
	OpenRouter OpenRouterConfig `json:"openrouter"`
	Google     ProviderConfig   `json:"google"`
	Anthropic  ProviderConfig   `json:"anthropic"`
	Copilot    ProviderConfig   `json:"copilot"`
}

// ProviderConfig holds the settings shared by all providers.
type ProviderConfig struct {
	APIKey            string  `json:"api_key"`
	APIURL            string  `json:"api_url,omitempty"`
	Model             string  `json:"model"`
	Temperature       float64 `json:"temperature"`
	MaxTokens         int     `json:"max_tokens"`
	APITimeoutSeconds int     `json:"api_timeout_seconds"`
}

// OpenRouterConfig extends the shared provider settings with the optional
// attribution headers OpenRouter accepts.
type OpenRouterConfig struct {
	APIKey            string  `json:"api_key"`
	APIURL            string  `json:"api_url"`
	Model             string  `json:"model"`
	Temperature       float64 `json:"temperature"`
	MaxTokens         int     `json:"max_tokens"`
	APITimeoutSeconds int     `json:"api_timeout_seconds"`
	HTTPReferer       string  `json:"http_referer,omitempty"`
	XTitle            string  `json:"x_title,omitempty"`
}

// Default returns a configuration with default values.
func Default() Config {
	return Config{
		LLMProvider:  "openai",
		SystemPrompt: DefaultSystemPrompt,
		DryRun:       false,
		LogLevel:     "info",
		LogFormat:    "json",
		Providers: ProvidersConfig{
			OpenAI: ProviderConfig{
				Model:             "gpt-4o",
				Temperature:       0.7,
				MaxTokens:         2000,
				APITimeoutSeconds: 60,
			},
			OpenRouter: OpenRouterConfig{
				APIURL:            "https://openrouter.ai/api/v1",
				Model:             "google/gemini-3.0-flash",
				Temperature:       0.7,
				MaxTokens:         2000,
				APITimeoutSeconds: 60,
			},
			Google: ProviderConfig{
				Model:             "gemini-3-flash-preview",
				Temperature:       0.7,
				MaxTokens:         2000,
				APITimeoutSeconds: 60,
			},
			Anthropic: ProviderConfig{
				Model:             "claude-3-5-sonnet-20241022",
				Temperature:       0.7,
				MaxTokens:         2000,
				APITimeoutSeconds: 60,
			},
			Copilot: ProviderConfig{
				Model:             "gpt-4o",
				APITimeoutSeconds: 60,
			},
		},
	}
}

// Load loads configuration from the specified path. If the file doesn't
// exist, it is created with default values. Environment variables override
// values from the file.
func Load(configPath string) (Config, error) {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return Config{}, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := Default()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := Save(configPath, cfg); err != nil {
			return Config{}, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	return applyEnvironmentOverrides(cfg), nil
}

// applyEnvironmentOverrides applies MDCHAT_* environment variables on top
// of the loaded config. The API key and model overrides target whichever
// provider is currently selected.
func applyEnvironmentOverrides(cfg Config) Config {
	if provider := os.Getenv("MDCHAT_PROVIDER"); provider != "" {
		cfg.LLMProvider = strings.ToLower(strings.TrimSpace(provider))
	}

	if dryRunEnv := os.Getenv("MDCHAT_DRY_RUN"); dryRunEnv != "" {
		if dryRun, err := strconv.ParseBool(dryRunEnv); err == nil {
			cfg.DryRun = dryRun
		}
	}

	if logLevel := os.Getenv("MDCHAT_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = strings.ToLower(logLevel)
	}

	if apiKey := os.Getenv("MDCHAT_API_KEY"); apiKey != "" {
		switch cfg.LLMProvider {
		case "openrouter":
			cfg.Providers.OpenRouter.APIKey = apiKey
		case "google":
			cfg.Providers.Google.APIKey = apiKey
		case "anthropic":
			cfg.Providers.Anthropic.APIKey = apiKey
		default:
			cfg.Providers.OpenAI.APIKey = apiKey
		}
	}

	if model := os.Getenv("MDCHAT_MODEL"); model != "" {
		switch cfg.LLMProvider {
		case "openrouter":
			cfg.Providers.OpenRouter.Model = model
		case "google":
			cfg.Providers.Google.Model = model
		case "anthropic":
			cfg.Providers.Anthropic.Model = model
		case "copilot":
			cfg.Providers.Copilot.Model = model
		default:
			cfg.Providers.OpenAI.Model = model
		}
	}

	return cfg
}

// Save saves the configuration to the specified path.
func Save(configPath string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

var supportedProviders = map[string]bool{
	"openai":     true,
	"openrouter": true,
	"google":     true,
	"anthropic":  true,
	"copilot":    true,
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if !supportedProviders[c.LLMProvider] {
		return fmt.Errorf("unsupported LLM provider: %s", c.LLMProvider)
	}

	// Providers validate their own credentials at construction time; the
	// checks here catch values no provider could accept.
	checks := []struct {
		name        string
		temperature float64
		maxTokens   int
	}{
		{"openai", c.Providers.OpenAI.Temperature, c.Providers.OpenAI.MaxTokens},
		{"openrouter", c.Providers.OpenRouter.Temperature, c.Providers.OpenRouter.MaxTokens},
		{"google", c.Providers.Google.Temperature, c.Providers.Google.MaxTokens},
		{"anthropic", c.Providers.Anthropic.Temperature, c.Providers.Anthropic.MaxTokens},
	}
	for _, p := range checks {
		if p.temperature < 0 || p.temperature > 2 {
			return fmt.Errorf("%s temperature must be between 0 and 2, got: %f", p.name, p.temperature)
		}
		if p.maxTokens < 0 {
			return fmt.Errorf("%s max_tokens must not be negative, got: %d", p.name, p.maxTokens)
		}
	}

	return nil
}

// GetConfigPath returns the default configuration file path.
func GetConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".mdchat", "config.json")
	}
	return filepath.Join(homeDir, ".mdchat", "config.json")
}
