package driving

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// RetrievalService finds the chunks of a document most similar to a query.
type RetrievalService interface {
	// Retrieve returns at most k chunks in descending score order.
	// Unknown documents and documents without vectors yield an empty result.
	Retrieve(ctx context.Context, documentID, query string, k int) ([]domain.RetrievedChunk, error)
}
