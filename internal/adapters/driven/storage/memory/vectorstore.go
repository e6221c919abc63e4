package memory

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is the vector view of an in-memory Store.
type VectorStore struct {
	store *Store
}

// NewVectorStore creates a vector store backed by a fresh Store.
func NewVectorStore() *VectorStore {
	return &VectorStore{store: NewStore()}
}

// Upsert replaces the vector record of a document.
func (v *VectorStore) Upsert(
	_ context.Context,
	documentID string,
	chunkIDs []string,
	vectors [][]float32,
	dimension int,
) error {
	rec, err := domain.NewVectorRecord(documentID, chunkIDs, vectors, dimension)
	if err != nil {
		return err
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	v.store.vectors[documentID] = copyRecord(rec)
	return nil
}

// Get retrieves the vector record of a document.
func (v *VectorStore) Get(_ context.Context, documentID string) (*domain.VectorRecord, error) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	rec, ok := v.store.vectors[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := copyRecord(&rec)
	return &c, nil
}

// Delete removes the vector record of a document.
func (v *VectorStore) Delete(_ context.Context, documentID string) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	delete(v.store.vectors, documentID)
	return nil
}
