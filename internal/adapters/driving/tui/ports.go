// Package tui provides an interactive terminal chat for ragchat.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
type Ports struct {
	// Chat answers questions.
	Chat driving.ChatService

	// Document lists, shows, and deletes documents.
	Document driving.DocumentService

	// Recommendation suggests questions. Optional.
	Recommendation driving.RecommendationService

	// Settings shows the active configuration. Optional.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	return nil
}
