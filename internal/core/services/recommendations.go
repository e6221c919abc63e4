package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// Ensure RecommendationService implements the interface.
var _ driving.RecommendationService = (*RecommendationService)(nil)

// recentDocuments is how many of the newest documents contribute suggestions.
const recentDocuments = 3

// staticRecommendations are always offered first.
var staticRecommendations = []string{
	"Please summarize the most recently updated content.",
	"Extract the key information from the documents.",
	"Generate an action checklist from the documents.",
	"Are there any risks in the documents that need attention?",
	"Convert the document content into key points.",
}

// RecommendationService suggests questions from static prompts and recent uploads.
type RecommendationService struct {
	docStore driven.DocumentStore
}

// NewRecommendationService creates a new recommendation service.
func NewRecommendationService(docStore driven.DocumentStore) *RecommendationService {
	return &RecommendationService{docStore: docStore}
}

// Recommendations returns static prompts followed by a summary and a
// key-points question for each of the three most recent documents.
func (s *RecommendationService) Recommendations(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = domain.DefaultRecommendationLimit
	}

	docs, err := s.docStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UploadTime.After(docs[j].UploadTime)
	})
	if len(docs) > recentDocuments {
		docs = docs[:recentDocuments]
	}

	candidates := make([]string, 0, len(staticRecommendations)+2*len(docs))
	candidates = append(candidates, staticRecommendations...)
	for _, d := range docs {
		name := d.Filename
		if name == "" {
			name = "the document"
		}
		candidates = append(candidates,
			fmt.Sprintf("Summarize the main content of «%s».", name),
			fmt.Sprintf("What are the key points in «%s»?", name),
		)
	}

	seen := make(map[string]struct{}, len(candidates))
	unique := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		unique = append(unique, c)
	}

	if len(unique) > limit {
		unique = unique[:limit]
	}
	return unique, nil
}
