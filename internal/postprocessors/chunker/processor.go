// Package chunker provides a fixed-size, overlapping text chunking processor.
package chunker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultMaxChars is the default number of characters per chunk.
const DefaultMaxChars = domain.DefaultChunkMaxChars

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = domain.DefaultChunkOverlap

// Split cuts text into windows of at most maxChars characters, each window
// starting overlap characters before the end of the previous one.
// Characters are Unicode code points; text is never normalised.
// Empty text yields no chunks.
func Split(text string, maxChars, overlap int) ([]string, error) {
	if err := validateWindow(maxChars, overlap); err != nil {
		return nil, err
	}

	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}

	chunks := make([]string, 0, n/(maxChars-overlap)+1)
	start := 0
	for {
		end := min(start+maxChars, n)
		chunks = append(chunks, string(runes[start:end]))
		if end == n {
			break
		}
		start = max(end-overlap, 0)
	}

	return chunks, nil
}

func validateWindow(maxChars, overlap int) error {
	if maxChars <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrValidation, maxChars)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", domain.ErrValidation, overlap)
	}
	if overlap >= maxChars {
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			domain.ErrValidation, overlap, maxChars)
	}
	return nil
}

// Processor splits document text into chunks.
// It implements the PostProcessor interface.
type Processor struct {
	maxChars int
	overlap  int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxChars sets the chunk size in characters.
func WithMaxChars(size int) Option {
	return func(p *Processor) {
		p.maxChars = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a chunker processor.
// Configurations where overlap is not smaller than the chunk size are rejected.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		maxChars: DefaultMaxChars,
		overlap:  DefaultOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := validateWindow(p.maxChars, p.overlap); err != nil {
		return nil, err
	}
	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// MaxChars returns the configured chunk size.
func (p *Processor) MaxChars() int {
	return p.maxChars
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits text into chunks with fresh IDs and sequential indexes.
func (p *Processor) Process(ctx context.Context, text string) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parts, err := Split(text, p.maxChars, p.overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = domain.Chunk{
			ID:      uuid.New().String(),
			Content: part,
			Index:   i,
		}
	}
	return chunks, nil
}
