package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// DocumentStore persists documents together with their chunks.
type DocumentStore interface {
	// Put stores a document, replacing any document with the same ID.
	Put(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID.
	// Returns domain.ErrNotFound if the document does not exist.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List returns summaries of all documents.
	List(ctx context.Context) ([]domain.DocumentSummary, error)

	// Delete removes a document. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error
}
