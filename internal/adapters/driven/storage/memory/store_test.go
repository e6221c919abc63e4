package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func newDoc(id string, uploaded time.Time, chunks ...string) *domain.Document {
	doc := &domain.Document{
		ID:         id,
		Filename:   id + ".txt",
		UploadTime: uploaded,
	}
	for i, c := range chunks {
		doc.Chunks = append(doc.Chunks, domain.Chunk{ID: id + "-c" + string(rune('0'+i)), Content: c, Index: i})
	}
	doc.Metadata.TotalChunks = len(doc.Chunks)
	return doc
}

func newRecord(t *testing.T, doc *domain.Document) *domain.VectorRecord {
	t.Helper()
	vecs := make([][]float32, len(doc.Chunks))
	for i := range vecs {
		vecs[i] = []float32{float32(i), 1}
	}
	rec, err := domain.NewVectorRecord(doc.ID, doc.ChunkIDs(), vecs, 2)
	require.NoError(t, err)
	return rec
}

func TestStore_SaveAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	doc := newDoc("doc-1", time.Now(), "alpha", "beta")

	require.NoError(t, store.SaveDocument(ctx, doc, newRecord(t, doc)))

	got, err := store.Documents().Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.Chunks, got.Chunks)

	rec, err := store.Vectors().Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.ChunkIDs(), rec.ChunkIDs())
	assert.Equal(t, 2, rec.Dimension)
}

func TestStore_SaveDocument_RejectsForeignVectors(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	doc := newDoc("doc-1", time.Now(), "alpha")

	rec, err := domain.NewVectorRecord("doc-1", []string{"stranger"}, [][]float32{{1}}, 1)
	require.NoError(t, err)

	err = store.SaveDocument(ctx, doc, rec)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = store.Documents().Get(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_SaveDocument_ReplacesWholeUnit(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	first := newDoc("doc-1", time.Now(), "a", "b", "c")
	require.NoError(t, store.SaveDocument(ctx, first, newRecord(t, first)))

	second := newDoc("doc-1", time.Now(), "only")
	second.Chunks[0].ID = "fresh"
	require.NoError(t, store.SaveDocument(ctx, second, newRecord(t, second)))

	rec, err := store.Vectors().Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, rec.ChunkIDs())
}

func TestStore_DeleteDocument(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	doc := newDoc("doc-1", time.Now(), "alpha")
	require.NoError(t, store.SaveDocument(ctx, doc, newRecord(t, doc)))

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))
	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	_, err := store.Documents().Get(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Vectors().Get(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ReturnsCopies(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	doc := newDoc("doc-1", time.Now(), "alpha")
	require.NoError(t, store.SaveDocument(ctx, doc, newRecord(t, doc)))

	doc.Chunks[0].Content = "mutated"
	got, err := store.Documents().Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "alpha", got.Chunks[0].Content)

	rec, err := store.Vectors().Get(ctx, "doc-1")
	require.NoError(t, err)
	rec.ChunkVectors[0].Vector[0] = 42
	again, err := store.Vectors().Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, float32(0), again.ChunkVectors[0].Vector[0])
}

func TestStore_Close(t *testing.T) {
	assert.NoError(t, NewStore().Close())
}

func TestStore_ConcurrentWriters(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	doc := newDoc("shared", time.Now(), "x")
	rec := newRecord(t, doc)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = store.SaveDocument(ctx, doc, rec)
			} else {
				_ = store.DeleteDocument(ctx, "shared")
			}
		}(i)
	}
	wg.Wait()

	// Document and vectors must agree after any interleaving.
	_, docErr := store.Documents().Get(ctx, "shared")
	_, vecErr := store.Vectors().Get(ctx, "shared")
	assert.Equal(t, docErr == nil, vecErr == nil)
}
