package ai

import (
	"context"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks provider settings by building the adapter they
// describe and pinging it. Unconfigured providers pass.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator returns a validator that waits up to timeout for a
// provider to answer. Zero means pingTimeout.
func NewConfigValidator(timeout time.Duration) *ConfigValidator {
	if timeout <= 0 {
		timeout = pingTimeout
	}
	return &ConfigValidator{timeout: timeout}
}

// ValidateEmbedding pings the embedding provider named by settings.
func (v *ConfigValidator) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}
	svc, err := CreateEmbeddingService(settings, domain.GatewaySettings{Timeout: v.timeout})
	if err != nil {
		return err
	}
	defer svc.Close()
	return v.ping(svc.Ping)
}

// ValidateLLM pings the LLM provider named by settings.
func (v *ConfigValidator) ValidateLLM(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}
	svc, err := CreateLLMService(settings, domain.GatewaySettings{Timeout: v.timeout})
	if err != nil {
		return err
	}
	defer svc.Close()
	return v.ping(svc.Ping)
}

func (v *ConfigValidator) ping(fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	return fn(ctx)
}
