package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// Normaliser turns an uploaded file into plain text.
type Normaliser interface {
	// SupportedExtensions returns the lower-case file extensions this normaliser accepts.
	SupportedExtensions() []string

	// Normalise decodes the upload. Unsupported files return domain.ErrUnsupportedFile.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Chunking is handled by a PostProcessor.
type NormaliseResult struct {
	// Filename is the cleaned upload name.
	Filename string

	// Text is the decoded document text.
	Text string

	// SourceSize is the size of the raw upload in bytes.
	SourceSize int
}
