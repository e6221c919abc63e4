package services

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// --- Mock implementations ---

// keywords defines the axes of the mock embedding space.
var keywords = []string{"apple", "banana", "cherry"}

// keywordVector counts keyword occurrences, one dimension per keyword.
func keywordVector(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, len(keywords))
	for i, kw := range keywords {
		vec[i] = float32(strings.Count(lower, kw))
	}
	return vec
}

// mockEmbedding implements driven.EmbeddingService for testing.
type mockEmbedding struct {
	mu       sync.Mutex
	embedErr error
	batchErr error
	short    bool
	calls    int
	texts    []string
}

func (m *mockEmbedding) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return keywordVector(text), nil
}

func (m *mockEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.texts = append(m.texts, texts...)
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = keywordVector(t)
	}
	if m.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockEmbedding) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockEmbedding) Dimensions() int              { return len(keywords) }
func (m *mockEmbedding) ModelName() string            { return "mock-embed" }
func (m *mockEmbedding) Ping(_ context.Context) error { return nil }
func (m *mockEmbedding) Close() error                 { return nil }

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	mu       sync.Mutex
	tokens   []string
	startErr error
	midErr   error // sent as the last delta, after tokens
	endless  bool
	messages []domain.ChatMessage
	opts     driven.ChatOptions
	stopped  chan struct{}
}

func (m *mockLLM) StreamChat(
	ctx context.Context, messages []domain.ChatMessage, opts driven.ChatOptions,
) (<-chan driven.ChatDelta, error) {
	m.record(messages, opts)
	if m.startErr != nil {
		return nil, m.startErr
	}

	out := make(chan driven.ChatDelta)
	go func() {
		defer close(out)
		if m.stopped != nil {
			defer close(m.stopped)
		}
		for i := 0; m.endless || i < len(m.tokens); i++ {
			tok := "tok"
			if i < len(m.tokens) {
				tok = m.tokens[i]
			}
			select {
			case out <- driven.ChatDelta{Text: tok}:
			case <-ctx.Done():
				return
			}
		}
		if m.midErr != nil {
			select {
			case out <- driven.ChatDelta{Err: m.midErr}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func (m *mockLLM) record(messages []domain.ChatMessage, opts driven.ChatOptions) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append([]domain.ChatMessage(nil), messages...)
	m.opts = opts
}

func (m *mockLLM) lastMessages() []domain.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockRetriever implements driving.RetrievalService for testing.
type mockRetriever struct {
	chunks []domain.RetrievedChunk
	err    error
	k      int
}

func (m *mockRetriever) Retrieve(_ context.Context, _, _ string, k int) ([]domain.RetrievedChunk, error) {
	m.k = k
	if m.err != nil {
		return nil, m.err
	}
	return m.chunks, nil
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.prompts[name], nil
}

func (m *mockPromptStore) Reload() {}

// mockAIConfigValidator implements driven.AIConfigValidator for testing.
type mockAIConfigValidator struct {
	embeddingErr error
	llmErr       error
}

func (m *mockAIConfigValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error {
	return m.embeddingErr
}

func (m *mockAIConfigValidator) ValidateLLM(_ *domain.LLMSettings) error {
	return m.llmErr
}

// failingDocumentStore implements driven.DocumentStore with a failing List.
type failingDocumentStore struct {
	driven.DocumentStore
	err error
}

func (f *failingDocumentStore) List(_ context.Context) ([]domain.DocumentSummary, error) {
	return nil, f.err
}
