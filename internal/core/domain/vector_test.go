package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVectorRecord(t *testing.T) {
	rec, err := NewVectorRecord("doc-1", []string{"a", "b"}, [][]float32{{1, 0}, {0, 1}}, 2)
	require.NoError(t, err)

	assert.Equal(t, "doc-1", rec.DocumentID)
	assert.Equal(t, 2, rec.Dimension)
	assert.Equal(t, []string{"a", "b"}, rec.ChunkIDs())
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, rec.Vectors())
}

func TestNewVectorRecord_Empty(t *testing.T) {
	rec, err := NewVectorRecord("doc-1", nil, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, rec.ChunkVectors)
}

func TestNewVectorRecord_Errors(t *testing.T) {
	tests := []struct {
		name    string
		ids     []string
		vectors [][]float32
		dim     int
	}{
		{"length mismatch", []string{"a"}, [][]float32{{1}, {2}}, 1},
		{"wrong dimension", []string{"a"}, [][]float32{{1, 2, 3}}, 2},
		{"zero dimension with vectors", []string{"a"}, [][]float32{{}}, 0},
		{"duplicate chunk", []string{"a", "a"}, [][]float32{{1}, {2}}, 1},
		{"empty chunk id", []string{""}, [][]float32{{1}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVectorRecord("doc-1", tt.ids, tt.vectors, tt.dim)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestVectorRecord_BelongsTo(t *testing.T) {
	doc := testDocument()

	rec, err := NewVectorRecord("doc-1", []string{"c-1"}, [][]float32{{1}}, 1)
	require.NoError(t, err)
	assert.NoError(t, rec.BelongsTo(doc))

	foreign, err := NewVectorRecord("doc-1", []string{"c-9"}, [][]float32{{1}}, 1)
	require.NoError(t, err)
	assert.ErrorIs(t, foreign.BelongsTo(doc), ErrValidation)

	other, err := NewVectorRecord("doc-2", nil, nil, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, other.BelongsTo(doc), ErrValidation)
}
