// Package config loads chatkit CLI configuration with the precedence
// CLI overrides > config file > environment > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/user/chatkit"
)

// Config is the root CLI configuration.
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// LLMConfig selects the endpoint and model.
type LLMConfig struct {
	Model   string `mapstructure:"model" yaml:"model"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`
}

// LoggingConfig mirrors internal/logging.Config.
type LoggingConfig struct {
	Level   string `mapstructure:"level" yaml:"level"`
	File    string `mapstructure:"file" yaml:"file,omitempty"`
	Console bool   `mapstructure:"console" yaml:"console"`
}

// DefaultPath is the per-user config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".chatkit.yaml")
}

// Load reads configuration from the given file (skipped when empty or
// missing), layered over CHATKIT_* environment variables and a .env file in
// the working directory. cliOverrides win over everything.
func Load(path string, cliOverrides map[string]any) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CHATKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		}
	}
	for key, value := range cliOverrides {
		if value != nil {
			v.Set(key, value)
		}
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           cfg,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create config decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	if cfg.LLM.APIKey == "" {
		return nil, &chatkit.ConfigError{
			Reason: fmt.Sprintf("API key is required: set llm.api_key or export %s", chatkit.EnvAPIKey),
		}
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = chatkit.DefaultModel
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = chatkit.DefaultBaseURL
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
		cfg.Logging.Console = true
	}
}

func applyEnvOverrides(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = getEnvWithFallback(chatkit.EnvAPIKey, chatkit.EnvAPIKeyFallback)
	}
	if env := os.Getenv(chatkit.EnvBaseURL); env != "" && cfg.LLM.BaseURL == chatkit.DefaultBaseURL {
		cfg.LLM.BaseURL = env
	}
	if env := os.Getenv(chatkit.EnvModel); env != "" && cfg.LLM.Model == chatkit.DefaultModel {
		cfg.LLM.Model = env
	}
}

// Save writes cfg as YAML, creating parent directories as needed. The API
// key is written only when explicitly present in cfg.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o600)
}

func getEnvWithFallback(primary, fallback string) string {
	if v := os.Getenv(primary); v != "" {
		return v
	}
	return os.Getenv(fallback)
}
