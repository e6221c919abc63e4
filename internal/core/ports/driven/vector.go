package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// VectorStore persists the chunk vectors of each document as one record.
type VectorStore interface {
	// Upsert replaces the whole vector record of a document.
	// chunkIDs and vectors are parallel; zero-length input stores an empty record.
	Upsert(ctx context.Context, documentID string, chunkIDs []string, vectors [][]float32, dimension int) error

	// Get retrieves the vector record of a document.
	// Returns domain.ErrNotFound if the document has no record.
	Get(ctx context.Context, documentID string) (*domain.VectorRecord, error)

	// Delete removes the vector record of a document. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, documentID string) error
}
