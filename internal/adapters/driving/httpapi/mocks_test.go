package httpapi

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

type mockDocuments struct {
	mu       sync.Mutex
	ingested []*domain.RawDocument
	docs     map[string]*domain.Document
	err      error
}

func newMockDocuments() *mockDocuments {
	return &mockDocuments{docs: make(map[string]*domain.Document)}
}

func (m *mockDocuments) Ingest(_ context.Context, raw *domain.RawDocument) (*domain.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.ingested = append(m.ingested, raw)
	return &domain.IngestResult{
		DocumentID:  "doc-1",
		Filename:    raw.Filename,
		ChunksCount: 1,
		Status:      domain.IngestStatusProcessed,
	}, nil
}

func (m *mockDocuments) List(_ context.Context) ([]domain.DocumentSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.DocumentSummary
	for _, d := range m.docs {
		out = append(out, d.Summary())
	}
	return out, nil
}

func (m *mockDocuments) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	d, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func (m *mockDocuments) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

// mockChat replays a fixed list of events for every turn.
type mockChat struct {
	mu        sync.Mutex
	mode      domain.ChatMode
	chunks    []string
	streamErr error
	failAfter error
	requests  []domain.ChatRequest

	// hold keeps the producer open after its chunks until ctx ends, then
	// closes stopped.
	hold    bool
	stopped chan struct{}
}

func (m *mockChat) Stream(ctx context.Context, req domain.ChatRequest) (*domain.ChatStream, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.streamErr != nil {
		return nil, m.streamErr
	}
	if m.hold {
		return m.holdingStream(ctx), nil
	}

	events := make(chan domain.ChatEvent, len(m.chunks)+1)
	for _, c := range m.chunks {
		events <- domain.ChatEvent{Type: domain.ChatEventChunk, Content: c}
	}
	if m.failAfter != nil {
		events <- domain.ChatEvent{Type: domain.ChatEventError, Err: m.failAfter}
	}
	close(events)

	mode := m.mode
	if mode == "" {
		mode = domain.ChatModeGeneral
	}
	return &domain.ChatStream{Mode: mode, Events: events}, nil
}

func (m *mockChat) holdingStream(ctx context.Context) *domain.ChatStream {
	events := make(chan domain.ChatEvent)
	go func() {
		defer close(m.stopped)
		defer close(events)
		for _, c := range m.chunks {
			select {
			case events <- domain.ChatEvent{Type: domain.ChatEventChunk, Content: c}:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return &domain.ChatStream{Mode: domain.ChatModeGeneral, Events: events}
}

func (m *mockChat) Answer(_ context.Context, req domain.ChatRequest) (*domain.ChatAnswer, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.streamErr != nil {
		return nil, m.streamErr
	}
	var text string
	for _, c := range m.chunks {
		text += c
	}
	return &domain.ChatAnswer{
		Response:       text,
		Mode:           domain.ChatModeGeneral,
		RelevantChunks: []domain.RetrievedChunk{},
	}, nil
}

func (m *mockChat) lastRequest() domain.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return domain.ChatRequest{}
	}
	return m.requests[len(m.requests)-1]
}

type mockRecommendations struct {
	recs      []string
	err       error
	lastLimit int
}

func (m *mockRecommendations) Recommendations(_ context.Context, limit int) ([]string, error) {
	m.lastLimit = limit
	return m.recs, m.err
}

func sampleDocument() *domain.Document {
	return &domain.Document{
		ID:         "doc-1",
		Filename:   "notes.txt",
		UploadTime: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Chunks:     []domain.Chunk{{ID: "doc-1_chunk_0", Content: "hello", Index: 0}},
		Metadata:   domain.DocumentMetadata{TotalChunks: 1, SourceSize: 5},
	}
}
