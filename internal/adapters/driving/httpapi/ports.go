// Package httpapi exposes the document and chat services over REST,
// server-sent events and WebSocket using gin.
package httpapi

import (
	"errors"

	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

var (
	// ErrMissingDocumentService is returned when the document service is not provided.
	ErrMissingDocumentService = errors.New("httpapi: document service is required")

	// ErrMissingChatService is returned when the chat service is not provided.
	ErrMissingChatService = errors.New("httpapi: chat service is required")

	// ErrMissingRecommendationService is returned when the recommendation service is not provided.
	ErrMissingRecommendationService = errors.New("httpapi: recommendation service is required")
)

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	Document       driving.DocumentService
	Chat           driving.ChatService
	Recommendation driving.RecommendationService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.Recommendation == nil {
		return ErrMissingRecommendationService
	}
	return nil
}
