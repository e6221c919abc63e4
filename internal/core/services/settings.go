package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyServerAddr        = "server.addr"
	keyStorageBackend    = "storage.backend"
	keyStorageDataDir    = "storage.data_dir"
	keyStoragePostgres   = "storage.postgres_dsn"
	keyChunkMaxChars     = "chunker.max_chars"
	keyChunkOverlap      = "chunker.overlap"
	keyRetrievalTopK     = "retrieval.top_k"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyLLMMaxTokens      = "llm.max_tokens"
	keyLLMTemperature    = "llm.temperature"
	keyGatewayTimeout    = "gateway.timeout_seconds"
	keyGatewayRetries    = "gateway.max_retries"
	keyGatewayRateLimit  = "gateway.requests_per_second"
	keyWatchDir          = "watch.dir"
	defaultOllamaBaseURL = "http://localhost:11434"
)

// setting is one key written by Save.
type setting struct {
	key   string
	value any
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	validate    *validator.Validate
}

// NewSettingsService creates a new settings service.
// The aiValidator parameter is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Get retrieves current application settings, defaults filled in.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, defaults.Server.Addr),
		},
		Storage: domain.StorageSettings{
			Backend:     s.getBackend(defaults.Storage.Backend),
			DataDir:     s.configStore.GetString(keyStorageDataDir),
			PostgresDSN: s.configStore.GetString(keyStoragePostgres),
		},
		Chunker: domain.ChunkerSettings{
			MaxChars: s.getInt(keyChunkMaxChars, defaults.Chunker.MaxChars),
			Overlap:  s.getIntOrZero(keyChunkOverlap, defaults.Chunker.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK: s.getInt(keyRetrievalTopK, defaults.Retrieval.TopK),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:       s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL),
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
			MaxTokens:   s.configStore.GetInt(keyLLMMaxTokens),
			Temperature: s.getFloat(keyLLMTemperature, defaults.LLM.Temperature),
		},
		Gateway: domain.GatewaySettings{
			Timeout:           time.Duration(s.getInt(keyGatewayTimeout, int(defaults.Gateway.Timeout/time.Second))) * time.Second,
			MaxRetries:        s.getIntOrZero(keyGatewayRetries, defaults.Gateway.MaxRetries),
			RequestsPerSecond: s.configStore.GetFloat(keyGatewayRateLimit),
		},
		Watch: domain.WatchSettings{
			Dir: s.configStore.GetString(keyWatchDir),
		},
	}

	return settings, nil
}

// Save persists application settings.
// Empty API keys are not written so a key supplied by the environment is never erased.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []setting{
		{keyServerAddr, settings.Server.Addr},
		{keyStorageBackend, settings.Storage.Backend.String()},
		{keyStorageDataDir, settings.Storage.DataDir},
		{keyStoragePostgres, settings.Storage.PostgresDSN},
		{keyChunkMaxChars, settings.Chunker.MaxChars},
		{keyChunkOverlap, settings.Chunker.Overlap},
		{keyRetrievalTopK, settings.Retrieval.TopK},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyGatewayTimeout, int(settings.Gateway.Timeout / time.Second)},
		{keyGatewayRetries, settings.Gateway.MaxRetries},
		{keyGatewayRateLimit, settings.Gateway.RequestsPerSecond},
		{keyWatchDir, settings.Watch.Dir},
	}
	if settings.Embedding.APIKey != "" {
		values = append(values, setting{keyEmbedAPIKey, settings.Embedding.APIKey})
	}
	if settings.LLM.APIKey != "" {
		values = append(values, setting{keyLLMAPIKey, settings.LLM.APIKey})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrValidation, provider)
	}
	if !provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrValidation, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrValidation, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrValidation, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrValidation, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks the current settings for consistency and completeness.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if err := s.validate.Struct(settings); err != nil {
		return validationError(err)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %s is not configured (API key missing?)",
			domain.ErrValidation, settings.Embedding.Provider)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: LLM provider %s is not configured (API key missing?)",
			domain.ErrValidation, settings.LLM.Provider)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// validationError flattens validator failures into one domain.ErrValidation.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(strings.TrimPrefix(fe.Namespace(), "AppSettings."))
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a custom URL for local providers and clears it for cloud ones.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return defaultOllamaBaseURL
	}
	return current
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getIntOrZero honours an explicit zero, unlike getInt.
func (s *SettingsService) getIntOrZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	val := s.configStore.GetString(keyStorageBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.StorageBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
