// Package config holds all partyup configuration. Config is loaded from a
// YAML file, then overridden by environment variables. If CONFIG_PATH names a
// dotenv file (the production images set it to config/secrets/.prod.env), its
// contents are loaded into the environment before overrides apply.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all partyup configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Telegram TelegramConfig `yaml:"telegram"`
	LLM      LLMConfig      `yaml:"llm"`
	Database DatabaseConfig `yaml:"database"`
	Matching MatchingConfig `yaml:"matching"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TelegramConfig configures the bot transport.
type TelegramConfig struct {
	Token       string `yaml:"token"`
	PollTimeout string `yaml:"poll_timeout"` // long-poll timeout per GetUpdates call
	MaxInFlight int    `yaml:"max_in_flight"`
}

// LLMConfig configures the chat-completions client.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// DatabaseConfig configures PostgreSQL access.
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	CandidateWindow string `yaml:"candidate_window"` // how far back a user counts as active
}

// MatchingConfig tunes the match scoring pass.
type MatchingConfig struct {
	Threshold         float64 `yaml:"threshold"`           // minimum score to surface a match
	MinPairSimilarity float64 `yaml:"min_pair_similarity"` // cross-game pairs below this are ignored
	MaxMatches        int     `yaml:"max_matches"`
	MaxParallel       int     `yaml:"max_parallel"` // concurrent candidate scoring
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`   // empty logs to stderr
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "partyup",
		Version: "1.2.0",

		Telegram: TelegramConfig{
			PollTimeout: "30s",
			MaxInFlight: 16,
		},

		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			Timeout: "60s",
		},

		Database: DatabaseConfig{
			CandidateWindow: "168h", // 7 days
		},

		Matching: MatchingConfig{
			Threshold:         0.6,
			MinPairSimilarity: 0.4,
			MaxMatches:        10,
			MaxParallel:       8,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
// Environment variables always win over file values.
func Load(path string) (*Config, error) {
	loadSecretsFile()

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// loadSecretsFile loads the dotenv file named by CONFIG_PATH into the process
// environment. Existing variables are not overwritten. A missing file is not
// an error so local runs work without the secrets mount.
func loadSecretsFile() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "partyup: could not load secrets file %s: %v\n", path, err)
		}
	}
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if token := os.Getenv("TELEGRAM_TOKEN"); token != "" {
		c.Telegram.Token = token
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		c.Database.URL = url
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if url := os.Getenv("OPENAI_BASE_URL"); url != "" {
		c.LLM.BaseURL = url
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		c.LLM.Model = model
	}
}

// Validate checks that everything required to run the bot is present.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram token not configured (set TELEGRAM_TOKEN)")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database URL not configured (set DATABASE_URL)")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set OPENAI_API_KEY)")
	}
	if c.Matching.Threshold < 0 || c.Matching.Threshold > 1 {
		return fmt.Errorf("matching threshold must be in [0,1], got %v", c.Matching.Threshold)
	}
	return nil
}

// PollTimeoutDuration returns the parsed long-poll timeout.
func (c *TelegramConfig) PollTimeoutDuration() time.Duration {
	return parseDuration(c.PollTimeout, 30*time.Second)
}

// TimeoutDuration returns the parsed LLM request timeout.
func (c *LLMConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, 60*time.Second)
}

// CandidateWindowDuration returns the parsed active-candidate window.
func (c *DatabaseConfig) CandidateWindowDuration() time.Duration {
	return parseDuration(c.CandidateWindow, 7*24*time.Hour)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
