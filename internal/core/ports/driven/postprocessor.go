package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// PostProcessor turns normalised text into the ordered chunks of a document.
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process splits text into chunks with fresh IDs and sequential indexes.
	Process(ctx context.Context, text string) ([]domain.Chunk, error)
}
