// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/ragchat/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ragchat/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/gateway"
	anthropicllm "github.com/custodia-labs/ragchat/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/ragchat/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/ragchat/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the AI services built from application settings.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string // Non-fatal issues, e.g. a provider left unconfigured.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init builds the embedding and LLM services from settings without pinging them.
// An unconfigured provider leaves its service nil and adds a warning.
func Init(settings *domain.AppSettings) (*InitResult, error) {
	result := &InitResult{}

	embed, err := CreateEmbeddingService(&settings.Embedding, settings.Gateway)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if embed == nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("embedding provider %q is not configured; uploads are disabled", settings.Embedding.Provider))
	}
	result.EmbeddingService = embed

	llm, err := CreateLLMService(&settings.LLM, settings.Gateway)
	if err != nil {
		result.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	if llm == nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("LLM provider %q is not configured; chat is disabled", settings.LLM.Provider))
	}
	result.LLMService = llm

	return result, nil
}

// ValidateEmbeddingConfig pings the embedding provider with the default timeout.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	return NewConfigValidator(0).ValidateEmbedding(settings)
}

// ValidateLLMConfig pings the LLM provider with the default timeout.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	return NewConfigValidator(0).ValidateLLM(settings)
}

// CreateEmbeddingService creates the embedding service named by settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings, gw domain.GatewaySettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	policy := gateway.NewPolicy(gw.MaxRetries, gw.RequestsPerSecond)

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings, gw, policy), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings, gw, policy)

	case domain.AIProviderAnthropic:
		// Anthropic does not support embeddings.
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the LLM service named by settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings, gw domain.GatewaySettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	// Completions are not rate limited; only retried.
	policy := gateway.NewPolicy(gw.MaxRetries, 0)

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: gw.Timeout,
			Policy:  policy,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: gw.Timeout,
			Policy:  policy,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: gw.Timeout,
			Policy:  policy,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

func createOllamaEmbedding(settings *domain.EmbeddingSettings, gw domain.GatewaySettings, policy *gateway.Policy) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Timeout:    gw.Timeout,
		Dimensions: dimensions,
		Policy:     policy,
	})
}

func createOpenAIEmbedding(settings *domain.EmbeddingSettings, gw domain.GatewaySettings, policy *gateway.Policy) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Timeout:    gw.Timeout,
		Dimensions: domain.EmbeddingDimensions()[settings.Model],
		Policy:     policy,
	})
}
