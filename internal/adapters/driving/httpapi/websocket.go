package httpapi

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/logger"
)

const wsWriteWait = 10 * time.Second

// wsInbound is a client frame on /ws/chat.
type wsInbound struct {
	Type       string `json:"type"`
	Content    string `json:"content"`
	DocumentID string `json:"document_id"`
}

// wsOutbound is a server frame on /ws/chat.
type wsOutbound struct {
	Type    domain.ChatEventType `json:"type"`
	Content string               `json:"content,omitempty"`
	Mode    domain.ChatMode      `json:"mode,omitempty"`
	Message string               `json:"message,omitempty"`
}

// handleWebSocket serves a multi-turn chat connection. Each inbound message
// is answered with start, chunk*, end or with a single error frame; the
// connection stays open across turns.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	defaultDocID := c.Query("document_id")

	// Reads run for the life of the connection so a close or disconnect
	// cancels a turn that is still streaming.
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	inbound := make(chan []byte)
	go pumpInbound(ctx, cancel, conn, inbound)

	for data := range inbound {
		var msg wsInbound
		if err := json.Unmarshal(data, &msg); err != nil {
			if !writeFrame(conn, wsOutbound{Type: domain.ChatEventError, Message: "invalid payload"}) {
				return
			}
			continue
		}
		if msg.Type != "" && msg.Type != "message" {
			if !writeFrame(conn, wsOutbound{Type: domain.ChatEventError, Message: "unsupported message type: " + msg.Type}) {
				return
			}
			continue
		}
		if strings.TrimSpace(msg.Content) == "" {
			if !writeFrame(conn, wsOutbound{Type: domain.ChatEventError, Message: "message content is required"}) {
				return
			}
			continue
		}

		docID := defaultDocID
		if msg.DocumentID != "" {
			docID = msg.DocumentID
		}

		if !s.streamTurn(ctx, conn, inbound, domain.ChatRequest{DocumentID: docID, Message: msg.Content}) {
			return
		}
	}
}

// pumpInbound forwards inbound frames until the peer goes away, then cancels
// the connection context and closes inbound.
func pumpInbound(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, inbound chan<- []byte) {
	defer cancel()
	defer close(inbound)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("websocket read: %v", err)
			}
			return
		}
		select {
		case inbound <- data:
		case <-ctx.Done():
			return
		}
	}
}

// streamTurn relays one answer. Frames that arrive while it streams are
// rejected with an error frame. It reports false once the peer is gone.
func (s *Server) streamTurn(
	parent context.Context,
	conn *websocket.Conn,
	inbound <-chan []byte,
	req domain.ChatRequest,
) bool {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	stream, err := s.ports.Chat.Stream(ctx, req)
	if err != nil {
		return writeFrame(conn, wsOutbound{Type: domain.ChatEventError, Message: err.Error()})
	}

	// abort stops the producer and drains it so it can exit.
	abort := func() bool {
		cancel()
		for range stream.Events {
		}
		return false
	}

	if !writeFrame(conn, wsOutbound{Type: domain.ChatEventStart, Mode: stream.Mode}) {
		return abort()
	}

	for {
		select {
		case ev, ok := <-stream.Events:
			if !ok {
				return writeFrame(conn, wsOutbound{Type: domain.ChatEventEnd})
			}
			switch ev.Type {
			case domain.ChatEventChunk:
				if !writeFrame(conn, wsOutbound{Type: domain.ChatEventChunk, Content: ev.Content}) {
					return abort()
				}
			case domain.ChatEventError:
				if !writeFrame(conn, wsOutbound{Type: domain.ChatEventError, Message: errorMessage(ev.Err)}) {
					return abort()
				}
				for range stream.Events {
				}
				return true
			}
		case _, ok := <-inbound:
			if !ok {
				return abort()
			}
			if !writeFrame(conn, wsOutbound{Type: domain.ChatEventError, Message: "a reply is already streaming"}) {
				return abort()
			}
		}
	}
}
func writeFrame(conn *websocket.Conn, frame wsOutbound) bool {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait)) //nolint:errcheck
	if err := conn.WriteJSON(frame); err != nil {
		logger.Debug("websocket write: %v", err)
		return false
	}
	return true
}
