package cli

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// mockDocumentService keeps documents in a map.
type mockDocumentService struct {
	mu        sync.Mutex
	docs      map[string]*domain.Document
	ingested  []*domain.RawDocument
	ingestErr error
	listErr   error
}

func newMockDocumentService() *mockDocumentService {
	return &mockDocumentService{docs: map[string]*domain.Document{
		"doc-1": {
			ID:         "doc-1",
			Filename:   "notes.txt",
			UploadTime: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
			Chunks: []domain.Chunk{
				{ID: "doc-1_chunk_0", Content: "Apples are red.", Index: 0},
				{ID: "doc-1_chunk_1", Content: "Bananas are yellow.", Index: 1},
			},
			Metadata: domain.DocumentMetadata{TotalChunks: 2, SourceSize: 34},
		},
	}}
}

func (m *mockDocumentService) Ingest(_ context.Context, raw *domain.RawDocument) (*domain.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ingestErr != nil {
		return nil, m.ingestErr
	}
	m.ingested = append(m.ingested, raw)

	id := raw.ID
	if id == "" {
		id = "doc-new"
	}
	m.docs[id] = &domain.Document{ID: id, Filename: raw.Filename, Metadata: domain.DocumentMetadata{TotalChunks: 1}}
	return &domain.IngestResult{
		DocumentID:  id,
		Filename:    raw.Filename,
		ChunksCount: 1,
		Status:      domain.IngestStatusProcessed,
	}, nil
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.DocumentSummary, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, d.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

func (m *mockDocumentService) ingestedNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.ingested))
	for i, r := range m.ingested {
		names[i] = r.Filename
	}
	sort.Strings(names)
	return names
}

// mockChatService streams a fixed reply.
type mockChatService struct {
	chunks    []string
	streamErr error
	failWith  error
	last      domain.ChatRequest
}

func (m *mockChatService) Stream(_ context.Context, req domain.ChatRequest) (*domain.ChatStream, error) {
	m.last = req
	if m.streamErr != nil {
		return nil, m.streamErr
	}

	events := make(chan domain.ChatEvent, len(m.chunks)+1)
	for _, c := range m.chunks {
		events <- domain.ChatEvent{Type: domain.ChatEventChunk, Content: c}
	}
	if m.failWith != nil {
		events <- domain.ChatEvent{Type: domain.ChatEventError, Err: m.failWith}
	}
	close(events)

	stream := &domain.ChatStream{Mode: domain.ChatModeGeneral, Events: events}
	if req.DocumentID != "" {
		stream.Mode = domain.ChatModeRAG
		stream.Sources = []domain.RetrievedChunk{{ChunkID: "doc-1_chunk_0", Content: "Apples are red.", Score: 0.87}}
	}
	return stream, nil
}

func (m *mockChatService) Answer(ctx context.Context, req domain.ChatRequest) (*domain.ChatAnswer, error) {
	stream, err := m.Stream(ctx, req)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	for ev := range stream.Events {
		b.WriteString(ev.Content)
	}
	return &domain.ChatAnswer{Response: b.String(), Mode: stream.Mode, RelevantChunks: stream.Sources}, nil
}

// mockRetrievalService returns canned excerpts.
type mockRetrievalService struct {
	chunks []domain.RetrievedChunk
	lastK  int
}

func (m *mockRetrievalService) Retrieve(_ context.Context, _, _ string, k int) ([]domain.RetrievedChunk, error) {
	m.lastK = k
	if k < len(m.chunks) {
		return m.chunks[:k], nil
	}
	return m.chunks, nil
}

// mockRecommendationService returns canned suggestions.
type mockRecommendationService struct {
	recs      []string
	lastLimit int
}

func (m *mockRecommendationService) Recommendations(_ context.Context, limit int) ([]string, error) {
	m.lastLimit = limit
	if limit < len(m.recs) {
		return m.recs[:limit], nil
	}
	return m.recs, nil
}

// mockSettingsService serves defaults.
type mockSettingsService struct {
	settings domain.AppSettings
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding.Provider, m.settings.Embedding.Model, m.settings.Embedding.APIKey = p, model, apiKey
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.settings.LLM.Provider, m.settings.LLM.Model, m.settings.LLM.APIKey = p, model, apiKey
	return nil
}

func (m *mockSettingsService) Validate() error                 { return nil }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error  { return nil }
func (m *mockSettingsService) ValidateLLMConfig() error        { return nil }

type testServices struct {
	documents       *mockDocumentService
	chat            *mockChatService
	retrieval       *mockRetrievalService
	recommendations *mockRecommendationService
	settings        *mockSettingsService
}

// setupTestServices installs mocks and returns them with a cleanup func.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		documents: newMockDocumentService(),
		chat:      &mockChatService{chunks: []string{"Apples ", "are red."}},
		retrieval: &mockRetrievalService{chunks: []domain.RetrievedChunk{
			{ChunkID: "doc-1_chunk_0", Content: "Apples are red.", Index: 0, Score: 0.91},
			{ChunkID: "doc-1_chunk_1", Content: "Bananas are yellow.", Index: 1, Score: 0.12},
		}},
		recommendations: &mockRecommendationService{recs: []string{"What is this about?", "Summarise it"}},
		settings:        &mockSettingsService{settings: domain.DefaultAppSettings()},
	}

	SetServices(&Services{
		Document:       ts.documents,
		Retrieval:      ts.retrieval,
		Chat:           ts.chat,
		Recommendation: ts.recommendations,
		Settings:       ts.settings,
	})

	return ts, clearServices
}

func clearServices() {
	documentService = nil
	retrievalService = nil
	chatService = nil
	recommendationService = nil
	settingsService = nil
}

// execute runs the root command with fresh flag values and captures output.
func execute(args ...string) (string, error) {
	documentJSON = false
	documentReplaceID = ""
	askDocumentID = ""
	askShowSources = false
	retrieveK = domain.DefaultTopK
	retrieveJSON = false
	recommendLimit = domain.DefaultRecommendationLimit
	watchOnce = false

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
