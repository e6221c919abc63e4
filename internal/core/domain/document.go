package domain

import (
	"fmt"
	"time"
)

// Document is an uploaded text document split into ordered chunks.
// Documents are immutable once stored; a re-upload replaces the whole unit.
type Document struct {
	// ID is the opaque unique key of the document.
	ID string `json:"document_id"`

	// Filename is the name the document was uploaded under.
	Filename string `json:"filename"`

	// UploadTime is when the document was ingested.
	UploadTime time.Time `json:"upload_time"`

	// Chunks are the document's text windows in original order.
	Chunks []Chunk `json:"chunks"`

	// Metadata holds derived facts about the upload.
	Metadata DocumentMetadata `json:"metadata"`
}

// DocumentMetadata holds derived facts about an uploaded document.
type DocumentMetadata struct {
	// TotalChunks is the number of chunks produced at ingest.
	TotalChunks int `json:"total_chunks"`

	// SourceSize is the size of the uploaded payload in bytes.
	SourceSize int `json:"source_size"`
}

// Chunk is a contiguous slice of a document's text.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string `json:"chunk_id"`

	// Content is the verbatim chunk text.
	Content string `json:"content"`

	// Index is the ordinal position within the document.
	Index int `json:"chunk_index"`
}

// DocumentSummary is the listing view of a document.
type DocumentSummary struct {
	ID          string    `json:"document_id"`
	Filename    string    `json:"filename"`
	UploadTime  time.Time `json:"upload_time"`
	ChunksCount int       `json:"chunks_count"`
}

// Summary returns the listing view of the document.
func (d *Document) Summary() DocumentSummary {
	return DocumentSummary{
		ID:          d.ID,
		Filename:    d.Filename,
		UploadTime:  d.UploadTime,
		ChunksCount: d.Metadata.TotalChunks,
	}
}

// ChunkIDs returns the chunk ids in document order.
func (d *Document) ChunkIDs() []string {
	ids := make([]string, len(d.Chunks))
	for i := range d.Chunks {
		ids[i] = d.Chunks[i].ID
	}
	return ids
}

// ChunkContent maps chunk id to chunk text.
func (d *Document) ChunkContent() map[string]Chunk {
	m := make(map[string]Chunk, len(d.Chunks))
	for _, c := range d.Chunks {
		m[c.ID] = c
	}
	return m
}

// Validate checks the structural invariants of a stored document.
// It is applied on write and on every read from a store.
func (d *Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: document id is empty", ErrValidation)
	}
	if d.Filename == "" {
		return fmt.Errorf("%w: document %s has no filename", ErrValidation, d.ID)
	}
	if d.Metadata.TotalChunks != len(d.Chunks) {
		return fmt.Errorf("%w: document %s declares %d chunks but holds %d",
			ErrValidation, d.ID, d.Metadata.TotalChunks, len(d.Chunks))
	}

	seen := make(map[string]struct{}, len(d.Chunks))
	for i, c := range d.Chunks {
		if c.ID == "" {
			return fmt.Errorf("%w: document %s chunk %d has no id", ErrValidation, d.ID, i)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: document %s has duplicate chunk id %s", ErrValidation, d.ID, c.ID)
		}
		seen[c.ID] = struct{}{}
		if c.Index != i {
			return fmt.Errorf("%w: document %s chunk %s has index %d, want %d",
				ErrValidation, d.ID, c.ID, c.Index, i)
		}
	}
	return nil
}
