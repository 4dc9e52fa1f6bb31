// Package config loads the acronymizer configuration: defaults, merged
// with an optional YAML config file, with environment fallbacks for
// provider credentials and database locations.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/otzaria/acronymizer/llm"
	"gopkg.in/yaml.v3"
)

// AnthropicConfig represents configuration for the Anthropic LLM provider.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key,omitempty"`
	Model  string `yaml:"model,omitempty"`
}

// OllamaConfig represents configuration for the Ollama LLM provider.
type OllamaConfig struct {
	Host  string `yaml:"host,omitempty"`
	Model string `yaml:"model,omitempty"`
}

// OpenAIConfig represents configuration for the OpenAI LLM provider.
type OpenAIConfig struct {
	APIKey       string `yaml:"api_key,omitempty"`
	BaseURL      string `yaml:"base_url,omitempty"`
	Model        string `yaml:"model,omitempty"`
	Organization string `yaml:"organization,omitempty"`
}

// SourceTablesConfig overrides the catalogue table/column layout.
type SourceTablesConfig struct {
	TitleTable  string `yaml:"title_table,omitempty"`
	TitleColumn string `yaml:"title_column,omitempty"`
	TOCTable    string `yaml:"toc_table,omitempty"`
	TOCColumn   string `yaml:"toc_column,omitempty"`
}

// Config is the full acronymizer configuration.
type Config struct {
	// Pacing and retry.
	TokensPerMinute     int `yaml:"tokens_per_minute,omitempty"`
	EstTokensPerRequest int `yaml:"est_tokens_per_request,omitempty"`
	BaseRetryDelayMs    int `yaml:"base_retry_delay_ms,omitempty"`
	MaxRetries          int `yaml:"max_retries,omitempty"`

	// Databases.
	SourceDB string `yaml:"source_db,omitempty"`
	ResultDB string `yaml:"result_db,omitempty"`

	// Workflow cadences.
	SessionRefreshEvery int `yaml:"session_refresh_every,omitempty"`
	HomogenizeEvery     int `yaml:"homogenize_every,omitempty"`

	// Desktop notification when a run completes.
	Notify bool `yaml:"notify,omitempty"`

	// LLM providers, in preference order.
	LLMProviders []string        `yaml:"llm_providers,omitempty"`
	Anthropic    AnthropicConfig `yaml:"anthropic,omitempty"`
	Ollama       OllamaConfig    `yaml:"ollama,omitempty"`
	OpenAI       OpenAIConfig    `yaml:"openai,omitempty"`

	SourceTables SourceTablesConfig `yaml:"source_tables,omitempty"`
}

// GetConfigPath returns the default config file path.
// Can be overridden via ACRONYMIZER_CONFIG_PATH environment variable.
func GetConfigPath() string {
	if envPath := os.Getenv("ACRONYMIZER_CONFIG_PATH"); envPath != "" {
		return expandPath(envPath)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./.acronymizer/config.yaml"
	}
	return filepath.Join(homeDir, ".acronymizer", "config.yaml")
}

// Load reads the config file at path (if it exists) and merges it over
// the defaults, then applies environment overrides for the database
// locations. A missing config file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := defaults()

	expandedPath := expandPath(path)
	data, err := os.ReadFile(expandedPath) //nolint:gosec // G304: user-specified config path is intentional
	switch {
	case err == nil:
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", expandedPath, err)
		}
		if err := mergo.Merge(cfg, fileCfg, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge config: %w", err)
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", expandedPath, err)
	}

	if envDB := os.Getenv("ACRONYMIZER_SOURCE_DB"); envDB != "" {
		cfg.SourceDB = expandPath(envDB)
	}
	if envDB := os.Getenv("ACRONYMIZER_RESULT_DB"); envDB != "" {
		cfg.ResultDB = expandPath(envDB)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		TokensPerMinute:     30000,
		EstTokensPerRequest: 1400,
		BaseRetryDelayMs:    1200,
		MaxRetries:          8,
		ResultDB:            "acronymizer.db",
		SessionRefreshEvery: 5,
		HomogenizeEvery:     50,
		LLMProviders:        []string{llm.ProviderOpenAI},
		Ollama: OllamaConfig{
			Host: "http://localhost:11434",
		},
	}
}

// Validate checks the configuration for fatal problems. Only a missing
// source database location is fatal; everything else has defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SourceDB) == "" {
		return fmt.Errorf("source_db is required (config file or ACRONYMIZER_SOURCE_DB)")
	}
	if len(c.LLMProviders) == 0 {
		return fmt.Errorf("at least one LLM provider must be enabled")
	}
	return nil
}

// BaseRetryDelay returns the retry base delay as a duration.
func (c *Config) BaseRetryDelay() time.Duration {
	return time.Duration(c.BaseRetryDelayMs) * time.Millisecond
}

// ProviderConfig converts the provider sections into the llm registry's
// configuration shape.
func (c *Config) ProviderConfig() *llm.ProviderConfig {
	return &llm.ProviderConfig{
		AnthropicAPIKey: c.Anthropic.APIKey,
		AnthropicModel:  c.Anthropic.Model,
		OllamaHost:      c.Ollama.Host,
		OllamaModel:     c.Ollama.Model,
		OpenAIAPIKey:    c.OpenAI.APIKey,
		OpenAIBaseURL:   c.OpenAI.BaseURL,
		OpenAIModel:     c.OpenAI.Model,
		OpenAIOrg:       c.OpenAI.Organization,
	}
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
