package driving

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// DocumentService manages uploaded documents.
type DocumentService interface {
	// Ingest normalises, chunks, embeds and stores an upload as one unit.
	// Embedding failures fail the whole upload; nothing is stored.
	Ingest(ctx context.Context, raw *domain.RawDocument) (*domain.IngestResult, error)

	// List returns document summaries, most recent upload first.
	List(ctx context.Context) ([]domain.DocumentSummary, error)

	// Get retrieves a document with its chunks.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Delete removes a document and its vectors. Unknown IDs are ignored.
	Delete(ctx context.Context, documentID string) error
}
