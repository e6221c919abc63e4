// Package plaintext normalises .txt uploads.
package plaintext

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text uploads.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the file extensions this normaliser accepts.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".txt"}
}

// Supports reports whether filename has an accepted extension.
func (n *Normaliser) Supports(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range n.SupportedExtensions() {
		if ext == e {
			return true
		}
	}
	return false
}

// Normalise decodes the upload as UTF-8.
// Invalid byte sequences are dropped rather than rejected.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: no upload", domain.ErrValidation)
	}

	filename := cleanFilename(raw.Filename)
	if filename == "" {
		return nil, fmt.Errorf("%w: upload has no filename", domain.ErrValidation)
	}
	if !n.Supports(filename) {
		return nil, fmt.Errorf("%w: %s (only .txt files are accepted)", domain.ErrUnsupportedFile, filename)
	}

	text := string(raw.Content)
	if !utf8.ValidString(text) {
		logger.Warn("dropping invalid UTF-8 sequences in %s", filename)
		text = strings.ToValidUTF8(text, "")
	}
	text = strings.TrimPrefix(text, "\uFEFF")

	return &driven.NormaliseResult{
		Filename:   filename,
		Text:       text,
		SourceSize: len(raw.Content),
	}, nil
}

// cleanFilename strips any client-side directory components.
func cleanFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
