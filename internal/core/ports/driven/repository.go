package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// Repository is the storage unit of work for documents and their vectors.
// A document and its vector record are written and removed together, so
// readers never observe one without the other.
type Repository interface {
	// Documents returns the document view of the repository.
	Documents() DocumentStore

	// Vectors returns the vector view of the repository.
	Vectors() VectorStore

	// SaveDocument stores doc and rec in a single transaction, replacing
	// any previous document and vectors with the same ID.
	SaveDocument(ctx context.Context, doc *domain.Document, rec *domain.VectorRecord) error

	// DeleteDocument removes a document and its vectors in a single transaction.
	// Deleting an unknown ID is not an error.
	DeleteDocument(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}
