package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService ingests uploads and manages stored documents.
// A document and its vectors are always written and removed as one unit.
type DocumentService struct {
	repo             driven.Repository
	normaliser       driven.Normaliser
	chunker          driven.PostProcessor
	embeddingService driven.EmbeddingService

	locks *keyedMutex
	now   func() time.Time
}

// NewDocumentService creates a new document service.
// The embeddingService parameter is optional (can be nil); uploads that
// produce chunks then fail with domain.ErrEmbeddingUnavailable.
func NewDocumentService(
	repo driven.Repository,
	normaliser driven.Normaliser,
	chunker driven.PostProcessor,
	embeddingService driven.EmbeddingService,
) *DocumentService {
	return &DocumentService{
		repo:             repo,
		normaliser:       normaliser,
		chunker:          chunker,
		embeddingService: embeddingService,
		locks:            newKeyedMutex(),
		now:              time.Now,
	}
}

// Ingest normalises, chunks and embeds an upload, then stores the document
// and its vectors in one transaction. If embedding fails nothing is stored.
func (s *DocumentService) Ingest(ctx context.Context, raw *domain.RawDocument) (*domain.IngestResult, error) {
	logger.Section("Ingest")

	norm, err := s.normaliser.Normalise(ctx, raw)
	if err != nil {
		return nil, err
	}
	logger.Debug("Normalised %s: %d bytes", norm.Filename, norm.SourceSize)

	id := raw.ID
	if id == "" {
		id = uuid.New().String()
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	chunks, err := s.chunker.Process(ctx, norm.Text)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", norm.Filename, err)
	}
	logger.Debug("Split %s into %d chunks", norm.Filename, len(chunks))

	doc := &domain.Document{
		ID:         id,
		Filename:   norm.Filename,
		UploadTime: s.now().UTC(),
		Chunks:     chunks,
		Metadata: domain.DocumentMetadata{
			TotalChunks: len(chunks),
			SourceSize:  norm.SourceSize,
		},
	}

	rec, err := s.embedChunks(ctx, doc)
	if err != nil {
		logger.Warn("upload %s rejected: %v", norm.Filename, err)
		return nil, err
	}

	if err := s.repo.SaveDocument(ctx, doc, rec); err != nil {
		return nil, fmt.Errorf("save %s: %w", norm.Filename, err)
	}

	logger.Info("Ingested %s as %s (%d chunks)", doc.Filename, doc.ID, len(chunks))
	return &domain.IngestResult{
		DocumentID:  doc.ID,
		Filename:    doc.Filename,
		ChunksCount: len(chunks),
		Status:      domain.IngestStatusProcessed,
	}, nil
}

// embedChunks builds the vector record of doc. A document without chunks
// gets an empty record and never reaches the embedding service.
func (s *DocumentService) embedChunks(ctx context.Context, doc *domain.Document) (*domain.VectorRecord, error) {
	if len(doc.Chunks) == 0 {
		return domain.NewVectorRecord(doc.ID, nil, nil, 0)
	}
	if s.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	texts := make([]string, len(doc.Chunks))
	for i, c := range doc.Chunks {
		texts[i] = c.Content
	}

	vectors, err := s.embeddingService.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", doc.Filename, err)
	}
	if len(vectors) != len(texts) {
		return nil, &domain.GatewayError{
			Provider: "embedding",
			Op:       "embed " + s.embeddingService.ModelName(),
			Err:      fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(texts)),
		}
	}

	return domain.NewVectorRecord(doc.ID, doc.ChunkIDs(), vectors, len(vectors[0]))
}

// List returns document summaries, most recent upload first.
func (s *DocumentService) List(ctx context.Context) ([]domain.DocumentSummary, error) {
	return s.repo.Documents().List(ctx)
}

// Get retrieves a document with its chunks.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrValidation)
	}
	return s.repo.Documents().Get(ctx, documentID)
}

// Delete removes a document and its vectors. Unknown IDs are ignored.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrValidation)
	}

	unlock := s.locks.Lock(documentID)
	defer unlock()

	if err := s.repo.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete %s: %w", documentID, err)
	}
	logger.Info("Deleted document %s", documentID)
	return nil
}
