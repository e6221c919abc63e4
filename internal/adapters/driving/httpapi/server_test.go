package httpapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

type fixture struct {
	docs   *mockDocuments
	chat   *mockChat
	recs   *mockRecommendations
	server *Server
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		docs: newMockDocuments(),
		chat: &mockChat{chunks: []string{"Hel", "lo"}},
		recs: &mockRecommendations{recs: []string{"What is this document about?"}},
	}
	srv, err := NewServer(&Ports{Document: f.docs, Chat: f.chat, Recommendation: f.recs}, opts...)
	require.NoError(t, err)
	f.server = srv
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestNewServer_RequiresPorts(t *testing.T) {
	_, err := NewServer(&Ports{})
	assert.ErrorIs(t, err, ErrMissingDocumentService)

	_, err = NewServer(&Ports{Document: newMockDocuments()})
	assert.ErrorIs(t, err, ErrMissingChatService)

	_, err = NewServer(&Ports{Document: newMockDocuments(), Chat: &mockChat{}})
	assert.ErrorIs(t, err, ErrMissingRecommendationService)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRequestID_Propagated(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")

	rec := f.do(req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestUpload(t *testing.T) {
	f := newFixture(t)
	rec := f.do(uploadRequest(t, "notes.txt", []byte("hello world")))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "doc-1", body["document_id"])
	assert.Equal(t, "notes.txt", body["filename"])
	assert.Equal(t, domain.IngestStatusProcessed, body["status"])

	require.Len(t, f.docs.ingested, 1)
	assert.Equal(t, []byte("hello world"), f.docs.ingested[0].Content)
}

func TestUpload_MissingFile(t *testing.T) {
	f := newFixture(t)
	rec := f.do(jsonRequest(http.MethodPost, "/api/documents/upload", `{}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "file")
}

func TestUpload_UnsupportedFile(t *testing.T) {
	f := newFixture(t)
	f.docs.err = domain.ErrUnsupportedFile

	rec := f.do(uploadRequest(t, "report.pdf", []byte("%PDF")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_TooLarge(t *testing.T) {
	f := newFixture(t, WithMaxUploadBytes(64))
	rec := f.do(uploadRequest(t, "big.txt", bytes.Repeat([]byte("a"), 1024)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, f.docs.ingested)
}

func TestListDocuments(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, decode(t, rec)["documents"])

	f.docs.docs["doc-1"] = sampleDocument()
	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	docs := decode(t, rec)["documents"].([]any)
	require.Len(t, docs, 1)
	assert.Equal(t, "notes.txt", docs[0].(map[string]any)["filename"])
}

func TestGetDocument(t *testing.T) {
	f := newFixture(t)
	f.docs.docs["doc-1"] = sampleDocument()

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/documents/doc-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "doc-1", body["document_id"])
	assert.Len(t, body["chunks"], 1)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/documents/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteDocument(t *testing.T) {
	f := newFixture(t)
	f.docs.docs["doc-1"] = sampleDocument()

	rec := f.do(httptest.NewRequest(http.MethodDelete, "/api/documents/doc-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "deleted", decode(t, rec)["status"])

	rec = f.do(httptest.NewRequest(http.MethodDelete, "/api/documents/doc-1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatMessage(t *testing.T) {
	f := newFixture(t)
	rec := f.do(jsonRequest(http.MethodPost, "/api/chat/message",
		`{"message":"hi","document_id":"doc-1"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Hello", body["response"])
	assert.Equal(t, "general", body["mode"])
	assert.Equal(t, domain.ChatRequest{DocumentID: "doc-1", Message: "hi"}, f.chat.lastRequest())
}

func TestChatMessage_MissingMessage(t *testing.T) {
	f := newFixture(t)
	rec := f.do(jsonRequest(http.MethodPost, "/api/chat/message", `{"document_id":"doc-1"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(jsonRequest(http.MethodPost, "/api/chat/message", `not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatMessage_ErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.ErrValidation, http.StatusBadRequest},
		{"llm unavailable", domain.ErrLLMUnavailable, http.StatusServiceUnavailable},
		{"gateway", &domain.GatewayError{Provider: "openai", Op: "chat", StatusCode: 500}, http.StatusBadGateway},
		{"gateway timeout", &domain.GatewayError{Provider: "openai", Op: "chat", StatusCode: 408}, http.StatusGatewayTimeout},
		{"transport timeout", &domain.GatewayError{
			Provider:  "openai",
			Op:        "stream chat",
			Retryable: true,
			Err:       &url.Error{Op: "Post", URL: "http://llm", Err: timeoutError{}},
		}, http.StatusGatewayTimeout},
		{"transport reset", &domain.GatewayError{
			Provider:  "openai",
			Op:        "stream chat",
			Retryable: true,
			Err:       &url.Error{Op: "Post", URL: "http://llm", Err: assert.AnError},
		}, http.StatusBadGateway},
		{"storage", &domain.StorageError{Op: "get", Err: assert.AnError}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.chat.streamErr = tt.err
			rec := f.do(jsonRequest(http.MethodPost, "/api/chat/message", `{"message":"hi"}`))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

// timeoutError is a net.Error that reports a timeout, like the one the HTTP
// client returns when response headers do not arrive in time.
type timeoutError struct{}

func (timeoutError) Error() string   { return "net/http: timeout awaiting response headers" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestChatStream(t *testing.T) {
	f := newFixture(t)
	rec := f.do(jsonRequest(http.MethodPost, "/api/chat/stream", `{"message":"hi"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	start := strings.Index(body, "event:start")
	first := strings.Index(body, `{"content":"Hel"}`)
	second := strings.Index(body, `{"content":"lo"}`)
	end := strings.Index(body, "event:end")

	require.NotEqual(t, -1, start)
	require.NotEqual(t, -1, end)
	assert.True(t, start < first && first < second && second < end, body)
	assert.NotContains(t, body, "event:error")
}

func TestChatStream_MidStreamError(t *testing.T) {
	f := newFixture(t)
	f.chat.failAfter = &domain.GatewayError{Provider: "ollama", Op: "chat", StatusCode: 500}

	rec := f.do(jsonRequest(http.MethodPost, "/api/chat/stream", `{"message":"hi"}`))

	body := rec.Body.String()
	assert.Contains(t, body, "event:chunk")
	assert.Contains(t, body, "event:error")
	assert.NotContains(t, body, "event:end")
}

func TestChatStream_StartError(t *testing.T) {
	f := newFixture(t)
	f.chat.streamErr = domain.ErrValidation

	rec := f.do(jsonRequest(http.MethodPost, "/api/chat/stream", `{"message":" "}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "event:")
}

func TestRecommendations(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/chat/recommendations?limit=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"What is this document about?"}, decode(t, rec)["recommendations"])
	assert.Equal(t, 3, f.recs.lastLimit)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/chat/recommendations", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, f.recs.lastLimit)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/chat/recommendations?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
