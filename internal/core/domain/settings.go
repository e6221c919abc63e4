package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API or any OpenAI-compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// SupportsEmbeddings returns true if the provider offers an embedding API.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// StorageBackend selects the document and vector repository.
type StorageBackend string

// Available storage backends.
const (
	// StorageSQLite is an embedded single-file database.
	StorageSQLite StorageBackend = "sqlite"

	// StoragePostgres is a PostgreSQL database with the pgvector extension.
	StoragePostgres StorageBackend = "postgres"

	// StorageMemory keeps everything in process memory.
	StorageMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageSQLite, StoragePostgres, StorageMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// ServerSettings holds HTTP server configuration.
type ServerSettings struct {
	// Addr is the listen address, e.g. ":8000".
	Addr string `validate:"required"`
}

// StorageSettings holds repository configuration.
type StorageSettings struct {
	// Backend selects the repository implementation.
	Backend StorageBackend `validate:"required,oneof=sqlite postgres memory"`

	// DataDir is where the sqlite database lives. Empty means ~/.ragchat/data.
	DataDir string

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string `validate:"required_if=Backend postgres"`
}

// ChunkerSettings holds text splitting configuration.
type ChunkerSettings struct {
	// MaxChars is the character budget per chunk.
	MaxChars int `validate:"gt=0"`

	// Overlap is the number of characters repeated between consecutive chunks.
	Overlap int `validate:"gte=0,ltfield=MaxChars"`
}

// RetrievalSettings holds similarity search configuration.
type RetrievalSettings struct {
	// TopK is the number of excerpts used to ground a chat answer.
	TopK int `validate:"gt=0"`
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider `validate:"required,oneof=ollama openai"`

	// Model is the embedding model name.
	Model string `validate:"required"`

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string `validate:"omitempty,url"`

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider `validate:"required,oneof=ollama openai anthropic"`

	// Model is the LLM model name.
	Model string `validate:"required"`

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string `validate:"omitempty,url"`

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// MaxTokens caps the completion length. Zero uses the provider default.
	MaxTokens int `validate:"gte=0"`

	// Temperature controls sampling randomness.
	Temperature float64 `validate:"gte=0,lte=2"`
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// GatewaySettings bounds calls to external AI providers.
type GatewaySettings struct {
	// Timeout bounds a single provider request.
	Timeout time.Duration `validate:"gt=0"`

	// MaxRetries is how many times a retryable failure is retried.
	MaxRetries int `validate:"gte=0,lte=10"`

	// RequestsPerSecond rate limits embedding calls. Zero disables limiting.
	RequestsPerSecond float64 `validate:"gte=0"`
}

// WatchSettings configures folder ingestion.
type WatchSettings struct {
	// Dir is the folder watched for new .txt files. Empty disables watching.
	Dir string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Server    ServerSettings
	Storage   StorageSettings
	Chunker   ChunkerSettings
	Retrieval RetrievalSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Gateway   GatewaySettings
	Watch     WatchSettings
}

// Defaults shared by the chunker, retriever and recommendation helpers.
const (
	DefaultChunkMaxChars       = 800
	DefaultChunkOverlap        = 100
	DefaultTopK                = 5
	DefaultRecommendationLimit = 8
)

// DefaultAppSettings returns settings with sensible defaults.
// API keys are left empty; they come from the config file or environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Server: ServerSettings{
			Addr: ":8000",
		},
		Storage: StorageSettings{
			Backend: StorageSQLite,
		},
		Chunker: ChunkerSettings{
			MaxChars: DefaultChunkMaxChars,
			Overlap:  DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			TopK: DefaultTopK,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultEmbeddingModels()[AIProviderOpenAI],
		},
		LLM: LLMSettings{
			Provider:    AIProviderOpenAI,
			Model:       DefaultLLMModels()[AIProviderOpenAI],
			Temperature: 0.7,
		},
		Gateway: GatewaySettings{
			Timeout:    60 * time.Second,
			MaxRetries: 3,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
