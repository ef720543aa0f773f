package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables consulted by NewFromEnv.
const (
	EnvProvider    = "CODESCOUT_EMBEDDING_PROVIDER"
	EnvOllamaURL   = "CODESCOUT_OLLAMA_URL"
	EnvOllamaModel = "CODESCOUT_OLLAMA_MODEL"
)

// Config holds explicit embedder configuration.
type Config struct {
	Provider  string
	APIKey    string
	OllamaURL string
	Model     string
	CacheSize int
}

// New creates an embedder with explicit configuration.
func New(cfg Config) (Embedder, error) {
	cache := NewCache(cfg.CacheSize)

	switch strings.ToLower(cfg.Provider) {
	case ProviderOllama:
		return NewOllamaProvider(cfg.OllamaURL, cfg.Model, cache), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cache)
	case ProviderLocal:
		return NewLocalProvider(cache), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrUnsupportedModel, cfg.Provider)
	}
}

// NewFromEnv creates an embedder based on environment variables.
// Priority:
//  1. CODESCOUT_EMBEDDING_PROVIDER (ollama, openai, local)
//  2. OPENAI_API_KEY if set
//  3. the deterministic local provider
func NewFromEnv() (Embedder, error) {
	cache := NewCache(0)

	if provider := strings.ToLower(os.Getenv(EnvProvider)); provider != "" {
		switch provider {
		case ProviderOllama:
			return NewOllamaProvider(os.Getenv(EnvOllamaURL), os.Getenv(EnvOllamaModel), cache), nil
		case ProviderOpenAI:
			return NewOpenAIProvider("", cache)
		case ProviderLocal:
			return NewLocalProvider(cache), nil
		default:
			return nil, fmt.Errorf("%w: unknown provider %q", ErrUnsupportedModel, provider)
		}
	}

	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return NewOpenAIProvider("", cache)
	}

	return NewLocalProvider(cache), nil
}
