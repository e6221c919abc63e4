package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure ChatService implements the interfaces.
var (
	_ driving.ChatService     = (*ChatService)(nil)
	_ driven.PromptStoreAware = (*ChatService)(nil)
)

// ChatConfig tunes answer generation.
type ChatConfig struct {
	// TopK is how many excerpts ground a RAG answer. Zero uses domain.DefaultTopK.
	TopK int

	// MaxTokens caps the completion length. Zero uses the provider default.
	MaxTokens int

	// Temperature controls sampling randomness.
	Temperature float64
}

// ChatService answers questions with a streamed completion, grounded on
// retrieved excerpts when a document is given and has any.
type ChatService struct {
	retriever   driving.RetrievalService
	llmService  driven.LLMService
	promptStore driven.PromptStore
	cfg         ChatConfig
}

// NewChatService creates a new chat service.
// The llmService parameter is optional (can be nil); every request then
// fails with domain.ErrLLMUnavailable.
func NewChatService(retriever driving.RetrievalService, llmService driven.LLMService, cfg ChatConfig) *ChatService {
	if cfg.TopK <= 0 {
		cfg.TopK = domain.DefaultTopK
	}
	return &ChatService{
		retriever:  retriever,
		llmService: llmService,
		cfg:        cfg,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *ChatService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// Stream starts an answer. Retrieval problems degrade to general chat;
// a completion that cannot be started ends the stream with one error event.
func (s *ChatService) Stream(ctx context.Context, req domain.ChatRequest) (*domain.ChatStream, error) {
	logger.Section("Chat")

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is empty", domain.ErrValidation)
	}
	if s.llmService == nil {
		return nil, domain.ErrLLMUnavailable
	}

	sources := s.retrieve(ctx, req.DocumentID, message)
	mode := domain.ChatModeGeneral
	if len(sources) > 0 {
		mode = domain.ChatModeRAG
	}
	logger.Debug("Mode: %s, %d excerpts", mode, len(sources))

	messages := s.buildMessages(mode, message, sources)
	opts := driven.ChatOptions{MaxTokens: s.cfg.MaxTokens, Temperature: s.cfg.Temperature}

	events := make(chan domain.ChatEvent)
	stream := &domain.ChatStream{Mode: mode, Sources: sources, Events: events}

	tokens, err := s.llmService.StreamChat(ctx, messages, opts)
	if err != nil {
		logger.Warn("completion failed to start: %v", err)
		go func() {
			defer close(events)
			select {
			case events <- domain.ChatEvent{Type: domain.ChatEventError, Err: err}:
			case <-ctx.Done():
			}
		}()
		return stream, nil
	}

	go forwardTokens(ctx, tokens, events)
	return stream, nil
}

// forwardTokens relays tokens in arrival order until the model finishes
// or ctx is cancelled. A provider error ends the stream with one error event.
// Cancelling ctx also stops the producer.
func forwardTokens(ctx context.Context, tokens <-chan driven.ChatDelta, events chan<- domain.ChatEvent) {
	defer close(events)

	send := func(ev domain.ChatEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	sent := 0
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Stream cancelled after %d tokens", sent)
			return
		case delta, ok := <-tokens:
			if !ok {
				logger.Debug("Stream finished after %d tokens", sent)
				return
			}
			if delta.Err != nil {
				logger.Warn("completion failed after %d tokens: %v", sent, delta.Err)
				send(domain.ChatEvent{Type: domain.ChatEventError, Err: delta.Err})
				return
			}
			if delta.Text == "" {
				continue
			}
			if !send(domain.ChatEvent{Type: domain.ChatEventChunk, Content: delta.Text}) {
				logger.Debug("Stream cancelled after %d tokens", sent)
				return
			}
			sent++
		}
	}
}

// Answer runs Stream to completion and returns the collected reply.
func (s *ChatService) Answer(ctx context.Context, req domain.ChatRequest) (*domain.ChatAnswer, error) {
	stream, err := s.Stream(ctx, req)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	for ev := range stream.Events {
		switch ev.Type {
		case domain.ChatEventChunk:
			sb.WriteString(ev.Content)
		case domain.ChatEventError:
			return nil, ev.Err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sources := stream.Sources
	if sources == nil {
		sources = []domain.RetrievedChunk{}
	}
	return &domain.ChatAnswer{
		Response:       sb.String(),
		Mode:           stream.Mode,
		RelevantChunks: sources,
	}, nil
}

// retrieve returns excerpts for RAG mode, or nil to fall back to general chat.
func (s *ChatService) retrieve(ctx context.Context, documentID, message string) []domain.RetrievedChunk {
	if documentID == "" || s.retriever == nil {
		return nil
	}

	chunks, err := s.retriever.Retrieve(ctx, documentID, message, s.cfg.TopK)
	if err != nil {
		logger.Warn("retrieval for %s failed, answering without document context: %v", documentID, err)
		return nil
	}
	return chunks
}

func (s *ChatService) buildMessages(mode domain.ChatMode, message string, sources []domain.RetrievedChunk) []domain.ChatMessage {
	if mode == domain.ChatModeGeneral {
		return []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: s.prompt(driven.PromptGeneralSystem)},
			{Role: domain.RoleUser, Content: message},
		}
	}

	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: s.prompt(driven.PromptRAGSystem)},
		{Role: domain.RoleUser, Content: fmt.Sprintf(s.ragUserTemplate(), excerptBlock(sources), message)},
	}
}

// excerptBlock labels excerpts by rank, best first.
func excerptBlock(sources []domain.RetrievedChunk) string {
	parts := make([]string, len(sources))
	for i, c := range sources {
		parts[i] = fmt.Sprintf("[Excerpt %d]\n%s", i+1, c.Content)
	}
	return strings.Join(parts, "\n\n")
}

// ragUserTemplate loads the RAG user template, falling back to the built-in
// one when a custom template does not take exactly two %s verbs.
func (s *ChatService) ragUserTemplate() string {
	tmpl := s.prompt(driven.PromptRAGUser)
	if strings.Count(tmpl, "%s") != 2 || strings.Count(tmpl, "%") != 2 {
		logger.Warn("prompt %s must contain exactly two %%s placeholders, using default", driven.PromptRAGUser)
		tmpl, _ = domain.DefaultPrompt(driven.PromptRAGUser)
	}
	return tmpl
}

// prompt loads a prompt from the store, falling back to the built-in default.
func (s *ChatService) prompt(name string) string {
	if s.promptStore != nil {
		p, err := s.promptStore.Load(name)
		if err == nil && strings.TrimSpace(p) != "" {
			return p
		}
		if err != nil {
			logger.Warn("failed to load prompt %s: %v", name, err)
		}
	}
	p, _ := domain.DefaultPrompt(name)
	return p
}
