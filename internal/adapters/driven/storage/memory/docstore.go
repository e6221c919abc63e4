package memory

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is the document view of an in-memory Store.
type DocumentStore struct {
	store *Store
}

// NewDocumentStore creates a document store backed by a fresh Store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{store: NewStore()}
}

// Put stores or replaces a document.
func (d *DocumentStore) Put(_ context.Context, doc *domain.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	d.store.documents[doc.ID] = copyDocument(doc)
	return nil
}

// Get retrieves a document by ID.
func (d *DocumentStore) Get(_ context.Context, id string) (*domain.Document, error) {
	d.store.mu.RLock()
	defer d.store.mu.RUnlock()
	doc, ok := d.store.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := copyDocument(&doc)
	return &c, nil
}

// List returns summaries of all documents, newest first.
func (d *DocumentStore) List(_ context.Context) ([]domain.DocumentSummary, error) {
	d.store.mu.RLock()
	defer d.store.mu.RUnlock()
	summaries := make([]domain.DocumentSummary, 0, len(d.store.documents))
	for _, doc := range d.store.documents {
		summaries = append(summaries, doc.Summary())
	}
	sortSummaries(summaries)
	return summaries, nil
}

// Delete removes a document.
func (d *DocumentStore) Delete(_ context.Context, id string) error {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	delete(d.store.documents, id)
	return nil
}
