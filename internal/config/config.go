// Package config loads PaperDesk settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/csheth/paperdesk/internal/gateway"
	"github.com/csheth/paperdesk/internal/llm"
	"github.com/csheth/paperdesk/internal/papers"
)

const (
	configPathEnv   = "PAPERDESK_CONFIG"
	geminiKeyEnv    = "GEMINI_API_KEY"
	apiKeyEnv       = "API_KEY"
	modelEnv        = "PAPERDESK_MODEL"
	ollamaHostEnv   = "OLLAMA_HOST"
	ollamaModelEnv  = "OLLAMA_MODEL"
	openAIKeyEnv    = "OPENAI_API_KEY"
	logLevelEnv     = "PAPERDESK_LOG_LEVEL"
	defaultLogLevel = "info"
)

// Config holds every setting the application reads at startup.
type Config struct {
	AI      AIConfig      `yaml:"ai"`
	Limits  LimitsConfig  `yaml:"limits"`
	User    UserConfig    `yaml:"user"`
	Library LibraryConfig `yaml:"library"`
	Logging LoggingConfig `yaml:"logging"`
	Import  ImportConfig  `yaml:"import"`
}

// AIConfig selects and configures the generative backend.
type AIConfig struct {
	Provider string        `yaml:"provider"`
	Model    string        `yaml:"model"`
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LimitsConfig bounds how much paper text reaches the backend.
type LimitsConfig struct {
	ReviewChars     int `yaml:"reviewChars"`
	ChatChars       int `yaml:"chatChars"`
	ImproveMaxChars int `yaml:"improveMaxChars"`
}

// UserConfig is the acting author.
type UserConfig struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Avatar      string `yaml:"avatar"`
	Affiliation string `yaml:"affiliation"`
}

// LibraryConfig points at an optional seed library file.
type LibraryConfig struct {
	Path     string `yaml:"path"`
	SkipDemo bool   `yaml:"skipDemo"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ImportConfig controls arXiv import. Empty endpoints use arxiv.org.
type ImportConfig struct {
	CacheDir     string `yaml:"cacheDir"`
	SkipFullText bool   `yaml:"skipFullText"`
	APIURL       string `yaml:"apiUrl"`
	PDFBase      string `yaml:"pdfBase"`
}

// Default returns the built-in configuration.
func Default() Config {
	limits := gateway.DefaultLimits()
	user := papers.DefaultUser
	return Config{
		AI: AIConfig{Timeout: limits.Timeout},
		Limits: LimitsConfig{
			ReviewChars:     limits.ReviewChars,
			ChatChars:       limits.ChatChars,
			ImproveMaxChars: limits.ImproveMaxChars,
		},
		User: UserConfig{
			ID:          user.ID,
			Name:        user.Name,
			Avatar:      user.Avatar,
			Affiliation: user.Affiliation,
		},
		Logging: LoggingConfig{Level: defaultLogLevel},
	}
}

// Load reads the YAML file at path (or $PAPERDESK_CONFIG when path is empty)
// over the defaults, then applies environment overrides. A missing file is
// only an error when the path was given explicitly.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	switch llm.Provider(strings.ToLower(c.AI.Provider)) {
	case llm.ProviderAuto, llm.ProviderGemini:
		if v := os.Getenv(geminiKeyEnv); v != "" {
			c.AI.APIKey = v
		} else if v := os.Getenv(apiKeyEnv); v != "" {
			c.AI.APIKey = v
		}
	case llm.ProviderOpenAI:
		if v := os.Getenv(openAIKeyEnv); v != "" {
			c.AI.APIKey = v
		}
	case llm.ProviderOllama:
		if v := os.Getenv(ollamaHostEnv); v != "" {
			c.AI.Endpoint = v
		}
		if v := os.Getenv(ollamaModelEnv); v != "" {
			c.AI.Model = v
		}
	}
	if v := os.Getenv(modelEnv); v != "" {
		c.AI.Model = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

// Validate rejects settings the application cannot run with.
func (c Config) Validate() error {
	switch llm.Provider(strings.ToLower(c.AI.Provider)) {
	case llm.ProviderAuto, llm.ProviderGemini, llm.ProviderOllama, llm.ProviderOpenAI:
	default:
		return fmt.Errorf("config: unknown ai.provider %q", c.AI.Provider)
	}
	if c.AI.Timeout < 0 {
		return fmt.Errorf("config: ai.timeout must not be negative")
	}
	if c.Limits.ReviewChars < 0 || c.Limits.ChatChars < 0 || c.Limits.ImproveMaxChars < 0 {
		return fmt.Errorf("config: limits must not be negative")
	}
	if strings.TrimSpace(c.User.Name) == "" {
		return fmt.Errorf("config: user.name is required")
	}
	return nil
}

// LLM returns the backend settings.
func (c Config) LLM() llm.Config {
	return llm.Config{
		Provider: llm.Provider(strings.ToLower(c.AI.Provider)),
		Model:    c.AI.Model,
		Endpoint: c.AI.Endpoint,
		APIKey:   c.AI.APIKey,
	}
}

// GatewayLimits returns the gateway limits; zero values keep the defaults.
func (c Config) GatewayLimits() gateway.Limits {
	return gateway.Limits{
		ReviewChars:     c.Limits.ReviewChars,
		ChatChars:       c.Limits.ChatChars,
		ImproveMaxChars: c.Limits.ImproveMaxChars,
		Timeout:         c.AI.Timeout,
	}
}

// Author returns the acting user as a paper author.
func (c Config) Author() papers.Author {
	id := c.User.ID
	if id == "" {
		id = "u1"
	}
	return papers.Author{ID: id, Name: c.User.Name, Avatar: c.User.Avatar, Affiliation: c.User.Affiliation}
}
