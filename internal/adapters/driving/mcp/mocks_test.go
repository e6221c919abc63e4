package mcp

import (
	"context"
	"errors"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	chunks []domain.RetrievedChunk
	err    error
	gotK   int
}

func (m *mockRetrievalService) Retrieve(_ context.Context, _, _ string, k int) ([]domain.RetrievedChunk, error) {
	m.gotK = k
	return m.chunks, m.err
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer *domain.ChatAnswer
	err    error
	got    domain.ChatRequest
}

func (m *mockChatService) Stream(_ context.Context, _ domain.ChatRequest) (*domain.ChatStream, error) {
	return nil, errors.New("mcp tools answer without streaming")
}

func (m *mockChatService) Answer(_ context.Context, req domain.ChatRequest) (*domain.ChatAnswer, error) {
	m.got = req
	return m.answer, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.DocumentSummary
	document  *domain.Document
	err       error
}

func (m *mockDocumentService) Ingest(_ context.Context, _ *domain.RawDocument) (*domain.IngestResult, error) {
	return nil, m.err
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentSummary, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

// mockRecommendationService is a mock implementation of driving.RecommendationService.
type mockRecommendationService struct {
	recs     []string
	err      error
	gotLimit int
}

func (m *mockRecommendationService) Recommendations(_ context.Context, limit int) ([]string, error) {
	m.gotLimit = limit
	return m.recs, m.err
}

// fullPorts returns ports with every required service mocked.
func fullPorts() *Ports {
	return &Ports{
		Retrieval: &mockRetrievalService{},
		Chat:      &mockChatService{},
		Document:  &mockDocumentService{},
	}
}
