// Package mcp provides an MCP (Model Context Protocol) server adapter for ragchat.
// It lets AI assistants retrieve excerpts from uploaded documents and ask
// grounded questions about them.
package mcp

import "errors"

var (
	// ErrMissingRetrievalService is returned when the retrieval service is not provided.
	ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

	// ErrMissingChatService is returned when the chat service is not provided.
	ErrMissingChatService = errors.New("mcp: chat service is required")

	// ErrMissingDocumentService is returned when the document service is not provided.
	ErrMissingDocumentService = errors.New("mcp: document service is required")
)
