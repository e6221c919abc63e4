package mcp

import (
	"context"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("missing ports returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingRetrievalService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(fullPorts())
		require.NoError(t, err)
		assert.NotNil(t, server)
	})

	t.Run("recommendation port is optional", func(t *testing.T) {
		ports := fullPorts()
		ports.Recommendation = &mockRecommendationService{}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil retrieval service", func(t *testing.T) {
		ports := fullPorts()
		ports.Retrieval = nil
		assert.ErrorIs(t, ports.Validate(), ErrMissingRetrievalService)
	})

	t.Run("nil chat service", func(t *testing.T) {
		ports := fullPorts()
		ports.Chat = nil
		assert.ErrorIs(t, ports.Validate(), ErrMissingChatService)
	})

	t.Run("nil document service", func(t *testing.T) {
		ports := fullPorts()
		ports.Document = nil
		assert.ErrorIs(t, ports.Validate(), ErrMissingDocumentService)
	})

	t.Run("all ports is valid", func(t *testing.T) {
		assert.NoError(t, fullPorts().Validate())
	})
}

func TestServer_HandlerServesTools(t *testing.T) {
	server, err := NewServer(fullPorts())
	require.NoError(t, err)

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	ctx := context.Background()
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: ts.URL}, nil)
	require.NoError(t, err)
	defer session.Close()

	assert.Equal(t, instructions, session.InitializeResult().Instructions)
	assert.Equal(t, "ragchat", session.InitializeResult().ServerInfo.Name)

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"ask", "list_documents", "retrieve"}, names)
}
