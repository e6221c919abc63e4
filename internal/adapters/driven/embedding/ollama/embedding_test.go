package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/gateway"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
	assert.Equal(t, DefaultBatchSize, svc.batchSize)
}

func TestEmbedBatch(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		var req embedRequest
		if r.URL.Path != "/api/embed" || json.NewDecoder(r.Body).Decode(&req) != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		out := make([][]float64, len(req.Input))
		for i, text := range req.Input {
			out[i] = []float64{float64(len(text)), 0, 1}
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: out})
	}))
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL, BatchSize: 2})
	out, err := svc.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)

	require.Len(t, out, 3)
	assert.Equal(t, []float32{3, 0, 1}, out[2])
	assert.Equal(t, 2, requests)
}

func TestEmbed_RetriesThenFails(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("model not loaded"))
	}))
	defer server.Close()

	svc := NewEmbeddingService(Config{
		BaseURL: server.URL,
		Policy:  &gateway.Policy{MaxRetries: 2, BaseDelay: time.Millisecond},
	})
	_, err := svc.Embed(context.Background(), "hello")

	var gwErr *domain.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "ollama", gwErr.Provider)
	assert.Contains(t, gwErr.Error(), "model not loaded")
	assert.Equal(t, 3, requests)
}

func TestEmbed_ErrorField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"no such model"}`))
	}))
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL})
	_, err := svc.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrGateway)
	assert.Contains(t, err.Error(), "no such model")
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	assert.NoError(t, NewEmbeddingService(Config{BaseURL: server.URL}).Ping(context.Background()))
}
