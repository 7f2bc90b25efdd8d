package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_CreatesDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLMProvider != "openai" {
		t.Errorf("expected default provider %q, got %q", "openai", cfg.LLMProvider)
	}
	if cfg.SystemPrompt == "" {
		t.Error("expected a default system prompt")
	}

	if _, err := os.Stat(configPath); err != nil {
		t.Errorf("expected config file to be created: %v", err)
	}
}

func TestLoad_ParsesExistingConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"llm_provider": "anthropic",
		"dry_run": true,
		"providers": {
			"anthropic": {
				"api_key": "test-key",
				"model": "claude-3-5-sonnet-20241022",
				"temperature": 0.5,
				"max_tokens": 1000,
				"api_timeout_seconds": 30
			}
		}
	}`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLMProvider != "anthropic" {
		t.Errorf("expected provider %q, got %q", "anthropic", cfg.LLMProvider)
	}
	if !cfg.DryRun {
		t.Error("expected dry_run true")
	}
	if cfg.Providers.Anthropic.APIKey != "test-key" {
		t.Errorf("expected api key %q, got %q", "test-key", cfg.Providers.Anthropic.APIKey)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(configPath, []byte("{not json"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")

	t.Setenv("MDCHAT_PROVIDER", "google")
	t.Setenv("MDCHAT_API_KEY", "env-key")
	t.Setenv("MDCHAT_MODEL", "gemini-3-pro")
	t.Setenv("MDCHAT_DRY_RUN", "true")
	t.Setenv("MDCHAT_LOG_LEVEL", "DEBUG")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLMProvider != "google" {
		t.Errorf("expected provider override %q, got %q", "google", cfg.LLMProvider)
	}
	if cfg.Providers.Google.APIKey != "env-key" {
		t.Errorf("expected api key override, got %q", cfg.Providers.Google.APIKey)
	}
	if cfg.Providers.Google.Model != "gemini-3-pro" {
		t.Errorf("expected model override, got %q", cfg.Providers.Google.Model)
	}
	if !cfg.DryRun {
		t.Error("expected dry_run override")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level %q, got %q", "debug", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"unknown provider", func(c *Config) { c.LLMProvider = "frobnicator" }, true},
		{"temperature too high", func(c *Config) { c.Providers.OpenAI.Temperature = 2.5 }, true},
		{"negative max tokens", func(c *Config) { c.Providers.Google.MaxTokens = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	cfg.LLMProvider = "openrouter"
	cfg.Providers.OpenRouter.APIKey = "saved-key"

	if err := Save(configPath, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.LLMProvider != "openrouter" {
		t.Errorf("expected provider %q, got %q", "openrouter", loaded.LLMProvider)
	}
	if loaded.Providers.OpenRouter.APIKey != "saved-key" {
		t.Errorf("expected saved api key, got %q", loaded.Providers.OpenRouter.APIKey)
	}
}
