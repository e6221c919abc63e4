package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// LLMService streams chat completions from a language model.
//
// Implementations may include:
//   - OpenAI (GPT-4o, GPT-4o-mini) and compatible servers
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMService interface {
	// StreamChat starts a completion and returns its fragments in arrival order.
	// An error is returned only if the call cannot be established. An error the
	// provider reports after that arrives as a final delta with Err set.
	// The channel is closed when the model finishes, the stream is interrupted,
	// or ctx is cancelled; cancelling ctx releases the underlying connection.
	StreamChat(ctx context.Context, messages []domain.ChatMessage, opts ChatOptions) (<-chan ChatDelta, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// ChatDelta is one element of a streamed completion.
type ChatDelta struct {
	// Text is the next fragment of the reply.
	Text string

	// Err is a *domain.GatewayError sent by the provider mid-stream.
	// Only the last delta of a stream may carry it.
	Err error
}
