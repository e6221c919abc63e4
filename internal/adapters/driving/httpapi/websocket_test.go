package httpapi

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func dialChat(t *testing.T, f *fixture, query string) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(f.server.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/chat" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrames(t *testing.T, conn *websocket.Conn, stop domain.ChatEventType) []wsOutbound {
	t.Helper()
	var frames []wsOutbound
	for {
		var frame wsOutbound
		require.NoError(t, conn.ReadJSON(&frame))
		frames = append(frames, frame)
		if frame.Type == stop || frame.Type == domain.ChatEventError {
			return frames
		}
	}
}

func TestWebSocket_Turn(t *testing.T) {
	f := newFixture(t)
	conn := dialChat(t, f, "?document_id=doc-1")

	require.NoError(t, conn.WriteJSON(wsInbound{Type: "message", Content: "hi"}))
	frames := readFrames(t, conn, domain.ChatEventEnd)

	require.Len(t, frames, 4)
	assert.Equal(t, domain.ChatEventStart, frames[0].Type)
	assert.Equal(t, wsOutbound{Type: domain.ChatEventChunk, Content: "Hel"}, frames[1])
	assert.Equal(t, wsOutbound{Type: domain.ChatEventChunk, Content: "lo"}, frames[2])
	assert.Equal(t, domain.ChatEventEnd, frames[3].Type)
	assert.Equal(t, "doc-1", f.chat.lastRequest().DocumentID)
}

func TestWebSocket_StaysOpenAcrossTurns(t *testing.T) {
	f := newFixture(t)
	conn := dialChat(t, f, "?document_id=doc-1")

	require.NoError(t, conn.WriteJSON(wsInbound{Type: "message", Content: "first"}))
	readFrames(t, conn, domain.ChatEventEnd)

	require.NoError(t, conn.WriteJSON(wsInbound{Type: "message", Content: "second", DocumentID: "doc-2"}))
	frames := readFrames(t, conn, domain.ChatEventEnd)

	assert.Equal(t, domain.ChatEventEnd, frames[len(frames)-1].Type)
	assert.Equal(t, domain.ChatRequest{DocumentID: "doc-2", Message: "second"}, f.chat.lastRequest())
}

func TestWebSocket_InvalidPayload(t *testing.T) {
	f := newFixture(t)
	conn := dialChat(t, f, "")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	frames := readFrames(t, conn, domain.ChatEventError)
	assert.Equal(t, []wsOutbound{{Type: domain.ChatEventError, Message: "invalid payload"}}, frames)

	// The connection survives a bad frame.
	require.NoError(t, conn.WriteJSON(wsInbound{Type: "message", Content: "hi"}))
	frames = readFrames(t, conn, domain.ChatEventEnd)
	assert.Equal(t, domain.ChatEventEnd, frames[len(frames)-1].Type)
}

func TestWebSocket_EmptyContent(t *testing.T) {
	f := newFixture(t)
	conn := dialChat(t, f, "")

	require.NoError(t, conn.WriteJSON(wsInbound{Type: "message", Content: "   "}))
	frames := readFrames(t, conn, domain.ChatEventError)

	require.Len(t, frames, 1)
	assert.Equal(t, domain.ChatEventError, frames[0].Type)
	assert.Empty(t, f.chat.lastRequest().Message)
}

func TestWebSocket_StreamError(t *testing.T) {
	f := newFixture(t)
	f.chat.failAfter = assert.AnError
	conn := dialChat(t, f, "")

	require.NoError(t, conn.WriteJSON(wsInbound{Type: "message", Content: "hi"}))
	frames := readFrames(t, conn, domain.ChatEventEnd)

	last := frames[len(frames)-1]
	assert.Equal(t, domain.ChatEventError, last.Type)
	assert.Equal(t, assert.AnError.Error(), last.Message)
}

func TestWebSocket_DisconnectCancelsTurn(t *testing.T) {
	f := newFixture(t)
	f.chat.chunks = []string{"partial"}
	f.chat.hold = true
	f.chat.stopped = make(chan struct{})
	conn := dialChat(t, f, "")

	require.NoError(t, conn.WriteJSON(wsInbound{Type: "message", Content: "hi"}))
	frames := readFrames(t, conn, domain.ChatEventChunk)
	require.Len(t, frames, 2)
	assert.Equal(t, "partial", frames[1].Content)

	require.NoError(t, conn.Close())

	select {
	case <-f.chat.stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("producer kept running after the client disconnected")
	}
}

func TestWebSocket_RejectsFrameDuringTurn(t *testing.T) {
	f := newFixture(t)
	f.chat.chunks = []string{"partial"}
	f.chat.hold = true
	f.chat.stopped = make(chan struct{})
	conn := dialChat(t, f, "")

	require.NoError(t, conn.WriteJSON(wsInbound{Type: "message", Content: "first"}))
	readFrames(t, conn, domain.ChatEventChunk)

	require.NoError(t, conn.WriteJSON(wsInbound{Type: "message", Content: "second"}))
	frames := readFrames(t, conn, domain.ChatEventError)
	assert.Equal(t, []wsOutbound{{Type: domain.ChatEventError, Message: "a reply is already streaming"}}, frames)
	assert.Equal(t, "first", f.chat.lastRequest().Message)
}
