package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// chatMessageRequest is the body of the chat endpoints.
type chatMessageRequest struct {
	Message    string `json:"message" binding:"required"`
	DocumentID string `json:"document_id"`
}

func (r chatMessageRequest) toDomain() domain.ChatRequest {
	return domain.ChatRequest{DocumentID: r.DocumentID, Message: r.Message}
}

// bindChat decodes the request body, writing a 400 on failure.
func bindChat(c *gin.Context) (chatMessageRequest, bool) {
	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return req, false
	}
	return req, true
}

func (s *Server) handleChatMessage(c *gin.Context) {
	req, ok := bindChat(c)
	if !ok {
		return
	}

	answer, err := s.ports.Chat.Answer(c.Request.Context(), req.toDomain())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

// handleChatStream relays a chat stream as server-sent events:
// one start, any number of chunk events, then end or error.
func (s *Server) handleChatStream(c *gin.Context) {
	req, ok := bindChat(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	stream, err := s.ports.Chat.Stream(ctx, req.toDomain())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	sendSSE(c, domain.ChatEventStart, gin.H{
		"mode":    stream.Mode,
		"sources": nonNilSources(stream.Sources),
	})

	for ev := range stream.Events {
		switch ev.Type {
		case domain.ChatEventChunk:
			sendSSE(c, domain.ChatEventChunk, gin.H{"content": ev.Content})
		case domain.ChatEventError:
			sendSSE(c, domain.ChatEventError, gin.H{"error": errorMessage(ev.Err)})
			return
		}
	}

	if ctx.Err() != nil {
		return
	}
	sendSSE(c, domain.ChatEventEnd, gin.H{})
}

func sendSSE(c *gin.Context, event domain.ChatEventType, data any) {
	c.SSEvent(string(event), data)
	c.Writer.Flush()
}

func (s *Server) handleRecommendations(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, fmt.Errorf("%w: limit must be an integer", domain.ErrValidation))
			return
		}
		limit = n
	}

	recs, err := s.ports.Recommendation.Recommendations(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if recs == nil {
		recs = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

func nonNilSources(sources []domain.RetrievedChunk) []domain.RetrievedChunk {
	if sources == nil {
		return []domain.RetrievedChunk{}
	}
	return sources
}

func errorMessage(err error) string {
	if err == nil {
		return "stream failed"
	}
	return err.Error()
}
