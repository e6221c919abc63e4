package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// mockChat implements driving.ChatService for testing.
type mockChat struct {
	reply string
}

func (m *mockChat) Stream(_ context.Context, req domain.ChatRequest) (*domain.ChatStream, error) {
	events := make(chan domain.ChatEvent, 1)
	events <- domain.ChatEvent{Type: domain.ChatEventChunk, Content: m.reply}
	close(events)

	mode := domain.ChatModeGeneral
	if req.DocumentID != "" {
		mode = domain.ChatModeRAG
	}
	return &domain.ChatStream{Mode: mode, Events: events}, nil
}

func (m *mockChat) Answer(_ context.Context, _ domain.ChatRequest) (*domain.ChatAnswer, error) {
	return &domain.ChatAnswer{Response: m.reply, Mode: domain.ChatModeGeneral}, nil
}

// mockDocuments implements driving.DocumentService for testing.
type mockDocuments struct {
	docs []domain.DocumentSummary
}

func (m *mockDocuments) Ingest(_ context.Context, _ *domain.RawDocument) (*domain.IngestResult, error) {
	return nil, errors.New("not used")
}

func (m *mockDocuments) List(_ context.Context) ([]domain.DocumentSummary, error) {
	return m.docs, nil
}

func (m *mockDocuments) Get(_ context.Context, id string) (*domain.Document, error) {
	for _, d := range m.docs {
		if d.ID == id {
			return &domain.Document{
				ID:       d.ID,
				Filename: d.Filename,
				Chunks:   []domain.Chunk{{ID: d.ID + "_chunk_0", Content: "body text"}},
			}, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocuments) Delete(_ context.Context, _ string) error {
	return nil
}

func testPorts() *Ports {
	return &Ports{
		Chat: &mockChat{reply: "hello"},
		Document: &mockDocuments{docs: []domain.DocumentSummary{
			{ID: "doc-1", Filename: "notes.txt", UploadTime: time.Now(), ChunksCount: 1},
		}},
	}
}

func TestPorts_Validate_AllSet(t *testing.T) {
	require.NoError(t, testPorts().Validate())
}

func TestPorts_Validate_OptionalPortsMayBeNil(t *testing.T) {
	ports := testPorts()
	ports.Recommendation = nil
	ports.Settings = nil

	assert.NoError(t, ports.Validate())
}

func TestPorts_Validate_MissingChat(t *testing.T) {
	ports := testPorts()
	ports.Chat = nil

	assert.ErrorIs(t, ports.Validate(), ErrMissingChatService)
}

func TestPorts_Validate_MissingDocument(t *testing.T) {
	ports := testPorts()
	ports.Document = nil

	assert.ErrorIs(t, ports.Validate(), ErrMissingDocumentService)
}
