package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService ranks the chunks of one document against a query
// by cosine similarity over a linear scan of its stored vectors.
type RetrievalService struct {
	repo             driven.Repository
	embeddingService driven.EmbeddingService
}

// NewRetrievalService creates a new retrieval service.
// The embeddingService parameter is optional (can be nil); without it every
// retrieval over a document with vectors fails with domain.ErrEmbeddingUnavailable.
func NewRetrievalService(repo driven.Repository, embeddingService driven.EmbeddingService) *RetrievalService {
	return &RetrievalService{
		repo:             repo,
		embeddingService: embeddingService,
	}
}

// Retrieve returns at most k chunks of the document in descending score order.
func (s *RetrievalService) Retrieve(
	ctx context.Context, documentID, query string, k int,
) ([]domain.RetrievedChunk, error) {
	logger.Section("Retrieval")
	logger.Debug("Document: %q, k=%d, query: %q", documentID, k, query)

	if k <= 0 || documentID == "" || strings.TrimSpace(query) == "" {
		return []domain.RetrievedChunk{}, nil
	}

	doc, err := s.repo.Documents().Get(ctx, documentID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Debug("Document %s not found, returning no chunks", documentID)
		return []domain.RetrievedChunk{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", documentID, err)
	}

	rec, err := s.repo.Vectors().Get(ctx, documentID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Debug("Document %s has no vector record", documentID)
		return []domain.RetrievedChunk{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load vectors for %s: %w", documentID, err)
	}
	if len(rec.ChunkVectors) == 0 {
		logger.Debug("Document %s has no stored vectors", documentID)
		return []domain.RetrievedChunk{}, nil
	}

	if s.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	queryVec, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(queryVec) != rec.Dimension {
		return nil, fmt.Errorf("%w: query embedding has %d dimensions, document %s was embedded with %d",
			domain.ErrValidation, len(queryVec), documentID, rec.Dimension)
	}

	results := rankChunks(queryVec, rec, doc.ChunkContent(), k)
	logger.Debug("Scored %d vectors, returning %d chunks", len(rec.ChunkVectors), len(results))
	return results, nil
}
