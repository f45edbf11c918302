package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/fintelligent/auditor/config"
	openai_provider "github.com/fintelligent/auditor/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI Client = "openai"
)

// ErrNotConfigured is returned when no provider is configured. Callers
// treat this as the documented degraded mode, not a failure.
var ErrNotConfigured = errors.New("llm provider not configured")

// Provider is the interface every LLM implementation must satisfy.
// A system instruction plus one user message in, response text out.
type Provider interface {
	Complete(ctx context.Context, system, user string) (string, error)
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// NewProvider creates an LLM client from configuration. A nil Provider
// together with ErrNotConfigured signals degraded deterministic mode.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch Client(strings.ToLower(strings.TrimSpace(cfg.Provider))) {
	case OpenAI:
		if cfg.APIKey == "" {
			return nil, ErrNotConfigured
		}
		return openai_provider.NewClient(cfg.APIKey, cfg.BaseURL, cfg.CompletionModel, cfg.EmbeddingModel, cfg.Temperature, cfg.MaxTokens, cfg.Timeout), nil
	case "":
		return nil, ErrNotConfigured
	default:
		return nil, errors.New("unsupported LLM provider: " + cfg.Provider)
	}
}
