package services

import (
	"math"
	"sort"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// normEpsilon keeps zero vectors from dividing by zero.
const normEpsilon = 1e-8

// cosineSimilarity scores a against b. Mismatched lengths score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	return dot / ((math.Sqrt(normA) + normEpsilon) * (math.Sqrt(normB) + normEpsilon))
}

// rankChunks scores every chunk vector of rec against query and returns
// the best k, highest score first. Equal scores keep record order.
// Vectors whose chunk is missing from chunks are skipped.
func rankChunks(query []float32, rec *domain.VectorRecord, chunks map[string]domain.Chunk, k int) []domain.RetrievedChunk {
	if k <= 0 || rec == nil {
		return []domain.RetrievedChunk{}
	}

	scored := make([]domain.RetrievedChunk, 0, len(rec.ChunkVectors))
	for _, cv := range rec.ChunkVectors {
		chunk, ok := chunks[cv.ChunkID]
		if !ok {
			continue
		}
		scored = append(scored, domain.RetrievedChunk{
			ChunkID: cv.ChunkID,
			Content: chunk.Content,
			Index:   chunk.Index,
			Score:   cosineSimilarity(query, cv.Vector),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
