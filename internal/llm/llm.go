package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultGeminiModel = "gemini-2.5-flash"
	defaultOllamaModel = "ministral-3:latest"
	defaultOpenAIModel = "gpt-4o-mini"
	defaultOllamaHost  = "http://localhost:11434"
	defaultOpenAIBase  = "https://api.openai.com/v1"
)

const defaultLLMHTTPTimeout = 3 * time.Minute

// Provider names a backend implementation.
type Provider string

const (
	ProviderAuto   Provider = ""
	ProviderGemini Provider = "gemini"
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
)

// Config describes how to build a Backend.
type Config struct {
	Provider   Provider
	Model      string
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
}

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message of a conversation replayed to the backend.
type Turn struct {
	Role Role
	Text string
}

// Request is a single generation call. Turns are sent in order; System is the
// system instruction. A non-nil Schema asks for JSON conforming to it.
type Request struct {
	System      string
	Turns       []Turn
	Temperature *float32
	Schema      *Schema
}

// Prompt wraps a single user prompt as a one-turn conversation.
func Prompt(text string) []Turn {
	return []Turn{{Role: RoleUser, Text: text}}
}

// Temperature returns a pointer suitable for Request.Temperature.
func Temperature(v float32) *float32 {
	return &v
}

// Backend is the generative model capability. Implementations make exactly
// one attempt per call and honor ctx cancellation.
type Backend interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

// NewFromConfig builds a Backend, falling back to environment variables for
// anything the config leaves empty. With no explicit provider, a Gemini key
// wins, then an OpenAI key, then a local Ollama daemon.
func NewFromConfig(ctx context.Context, cfg Config) (Backend, error) {
	provider := cfg.Provider
	if provider == ProviderAuto {
		switch {
		case cfg.APIKey != "" || geminiKeyFromEnv() != "":
			provider = ProviderGemini
		case os.Getenv("OPENAI_API_KEY") != "":
			provider = ProviderOpenAI
		default:
			provider = ProviderOllama
		}
	}

	switch provider {
	case ProviderGemini:
		key := cfg.APIKey
		if key == "" {
			key = geminiKeyFromEnv()
		}
		return NewGemini(ctx, GeminiConfig{
			APIKey:     key,
			Model:      cfg.Model,
			BaseURL:    cfg.Endpoint,
			HTTPClient: cfg.HTTPClient,
		})
	case ProviderOpenAI:
		key := cfg.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		if key == "" {
			return nil, fmt.Errorf("openai backend requires an API key")
		}
		return NewOpenAI(key, cfg.Model, cfg.Endpoint, cfg.HTTPClient), nil
	case ProviderOllama:
		host := cfg.Endpoint
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		model := cfg.Model
		if model == "" {
			model = os.Getenv("OLLAMA_MODEL")
		}
		return NewOllama(host, model, cfg.HTTPClient), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

// NewOllama returns a Backend for a local Ollama daemon. Empty host and model
// fall back to the defaults.
func NewOllama(host, model string, httpClient *http.Client) Backend {
	host = strings.TrimRight(host, "/")
	if host == "" {
		host = defaultOllamaHost
	}
	if model == "" {
		model = defaultOllamaModel
	}
	return &ollamaClient{host: host, model: model, client: pickHTTPClient(httpClient)}
}

// NewOpenAI returns a Backend for an OpenAI-compatible chat completions API.
func NewOpenAI(apiKey, model, baseURL string, httpClient *http.Client) Backend {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultOpenAIBase
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openAIClient{apiKey: apiKey, model: model, base: base, client: pickHTTPClient(httpClient)}
}

func geminiKeyFromEnv() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("API_KEY")
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	// Per-call deadlines come from the caller's context; this only caps runaway connections.
	return &http.Client{Timeout: defaultLLMHTTPTimeout}
}
