// Package memory provides in-memory implementations of the storage ports.
// All state lives in a single Store guarded by one lock, so a document and
// its vectors always change together. Intended for tests and ephemeral runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.Repository = (*Store)(nil)

// Store is an in-memory document and vector repository.
type Store struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	vectors   map[string]domain.VectorRecord
}

// NewStore creates an empty in-memory repository.
func NewStore() *Store {
	return &Store{
		documents: make(map[string]domain.Document),
		vectors:   make(map[string]domain.VectorRecord),
	}
}

// Documents returns the document view of the store.
func (s *Store) Documents() driven.DocumentStore {
	return &DocumentStore{store: s}
}

// Vectors returns the vector view of the store.
func (s *Store) Vectors() driven.VectorStore {
	return &VectorStore{store: s}
}

// SaveDocument stores doc and rec together.
func (s *Store) SaveDocument(_ context.Context, doc *domain.Document, rec *domain.VectorRecord) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := rec.BelongsTo(doc); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = copyDocument(doc)
	s.vectors[doc.ID] = copyRecord(rec)
	return nil
}

// DeleteDocument removes a document and its vectors together.
func (s *Store) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	delete(s.vectors, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

func copyDocument(doc *domain.Document) domain.Document {
	c := *doc
	c.Chunks = append([]domain.Chunk(nil), doc.Chunks...)
	return c
}

func copyRecord(rec *domain.VectorRecord) domain.VectorRecord {
	c := *rec
	c.ChunkVectors = make([]domain.ChunkVector, len(rec.ChunkVectors))
	for i, cv := range rec.ChunkVectors {
		c.ChunkVectors[i] = domain.ChunkVector{
			ChunkID: cv.ChunkID,
			Vector:  append([]float32(nil), cv.Vector...),
		}
	}
	return c
}

// sortSummaries orders summaries newest first, then by ID.
func sortSummaries(summaries []domain.DocumentSummary) {
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].UploadTime.Equal(summaries[j].UploadTime) {
			return summaries[i].UploadTime.After(summaries[j].UploadTime)
		}
		return summaries[i].ID < summaries[j].ID
	})
}
