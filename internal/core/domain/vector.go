package domain

import "fmt"

// ChunkVector is the embedding of a single chunk.
type ChunkVector struct {
	ChunkID string    `json:"chunk_id"`
	Vector  []float32 `json:"vector"`
}

// VectorRecord holds every chunk vector of one document.
// A record is created and replaced as a whole.
type VectorRecord struct {
	// DocumentID is the owning document.
	DocumentID string `json:"document_id"`

	// Dimension is the length of every vector in the record.
	Dimension int `json:"dimension"`

	// ChunkVectors are ordered like the chunk ids they were built from.
	ChunkVectors []ChunkVector `json:"chunk_vectors"`
}

// NewVectorRecord pairs chunk ids with their vectors.
// Zero-length input is valid and yields an empty record.
func NewVectorRecord(documentID string, chunkIDs []string, vectors [][]float32, dimension int) (*VectorRecord, error) {
	if len(chunkIDs) != len(vectors) {
		return nil, fmt.Errorf("%w: %d chunk ids but %d vectors", ErrValidation, len(chunkIDs), len(vectors))
	}

	rec := &VectorRecord{
		DocumentID:   documentID,
		Dimension:    dimension,
		ChunkVectors: make([]ChunkVector, len(chunkIDs)),
	}
	for i := range chunkIDs {
		rec.ChunkVectors[i] = ChunkVector{ChunkID: chunkIDs[i], Vector: vectors[i]}
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// ChunkIDs returns the chunk ids in record order.
func (r *VectorRecord) ChunkIDs() []string {
	ids := make([]string, len(r.ChunkVectors))
	for i := range r.ChunkVectors {
		ids[i] = r.ChunkVectors[i].ChunkID
	}
	return ids
}

// Vectors returns the vectors in record order.
func (r *VectorRecord) Vectors() [][]float32 {
	vecs := make([][]float32, len(r.ChunkVectors))
	for i := range r.ChunkVectors {
		vecs[i] = r.ChunkVectors[i].Vector
	}
	return vecs
}

// Validate checks that every vector has the declared dimension
// and that chunk ids are present and unique.
func (r *VectorRecord) Validate() error {
	if r.DocumentID == "" {
		return fmt.Errorf("%w: vector record has no document id", ErrValidation)
	}
	if r.Dimension < 0 {
		return fmt.Errorf("%w: negative dimension %d", ErrValidation, r.Dimension)
	}
	if len(r.ChunkVectors) > 0 && r.Dimension == 0 {
		return fmt.Errorf("%w: vector record %s has vectors but no dimension", ErrValidation, r.DocumentID)
	}

	seen := make(map[string]struct{}, len(r.ChunkVectors))
	for _, cv := range r.ChunkVectors {
		if cv.ChunkID == "" {
			return fmt.Errorf("%w: vector record %s has an empty chunk id", ErrValidation, r.DocumentID)
		}
		if _, dup := seen[cv.ChunkID]; dup {
			return fmt.Errorf("%w: vector record %s repeats chunk %s", ErrValidation, r.DocumentID, cv.ChunkID)
		}
		seen[cv.ChunkID] = struct{}{}
		if len(cv.Vector) != r.Dimension {
			return fmt.Errorf("%w: chunk %s vector has length %d, want %d",
				ErrValidation, cv.ChunkID, len(cv.Vector), r.Dimension)
		}
	}
	return nil
}

// BelongsTo reports an error if the record references chunks the document does not hold.
func (r *VectorRecord) BelongsTo(doc *Document) error {
	if r.DocumentID != doc.ID {
		return fmt.Errorf("%w: vector record for %s attached to document %s", ErrValidation, r.DocumentID, doc.ID)
	}
	chunks := doc.ChunkContent()
	for _, cv := range r.ChunkVectors {
		if _, ok := chunks[cv.ChunkID]; !ok {
			return fmt.Errorf("%w: chunk %s is not part of document %s", ErrValidation, cv.ChunkID, doc.ID)
		}
	}
	return nil
}
