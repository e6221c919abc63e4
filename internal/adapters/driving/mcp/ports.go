package mcp

import (
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval ranks document chunks against a query.
	Retrieval driving.RetrievalService

	// Chat answers questions.
	Chat driving.ChatService

	// Document lists and reads uploaded documents.
	Document driving.DocumentService

	// Recommendation suggests questions. Optional.
	Recommendation driving.RecommendationService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	return nil
}
