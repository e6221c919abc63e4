package driving

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// ChatService answers questions, grounded on a document when one is given.
type ChatService interface {
	// Stream starts an answer and returns it as a live event stream.
	// Invalid requests fail synchronously; gateway failures arrive as a terminal error event.
	// Cancelling ctx stops the stream and releases the model connection.
	Stream(ctx context.Context, req domain.ChatRequest) (*domain.ChatStream, error)

	// Answer runs Stream to completion and returns the collected reply.
	Answer(ctx context.Context, req domain.ChatRequest) (*domain.ChatAnswer, error)
}

// RecommendationService suggests questions to ask.
type RecommendationService interface {
	// Recommendations returns de-duplicated suggestions, static prompts first.
	// A non-positive limit uses the default of 8.
	Recommendations(ctx context.Context, limit int) ([]string, error)
}
