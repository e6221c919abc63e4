// Package ollama provides an LLM service adapter using Ollama.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/gateway"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

const (
	provider = "ollama"
	opStream = "stream chat"
)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the LLM model to use (default: llama3.2).
	Model string

	// Timeout bounds the wait for response headers (default: 120s).
	Timeout time.Duration

	// Policy controls retries of failed calls. Nil makes single attempts.
	Policy *gateway.Policy
}

// LLMService provides chat completions using a local Ollama server.
type LLMService struct {
	client  *http.Client
	baseURL string
	model   string
	policy  *gateway.Policy
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *chatOptions  `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// chatResponse is one line of a streamed reply.
type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		client:  gateway.NewHTTPClient(cfg.Timeout),
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		policy:  cfg.Policy,
	}
}

// StreamChat streams the completion as text fragments decoded from NDJSON lines.
// An error line ends the stream with a gateway error.
func (s *LLMService) StreamChat(
	ctx context.Context,
	messages []domain.ChatMessage,
	opts driven.ChatOptions,
) (<-chan driven.ChatDelta, error) {
	var resp *http.Response
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		resp, err = s.send(ctx, messages, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make(chan driven.ChatDelta)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		emit := func(d driven.ChatDelta) bool {
			select {
			case out <- d:
				return true
			case <-ctx.Done():
				return false
			}
		}

		decoder := json.NewDecoder(resp.Body)
		for {
			var chunk chatResponse
			if err := decoder.Decode(&chunk); err != nil {
				if !errors.Is(err, io.EOF) && ctx.Err() == nil {
					logger.Warn("ollama: stream interrupted: %v", err)
				}
				return
			}
			if chunk.Error != "" {
				emit(driven.ChatDelta{Err: gateway.ResponseError(provider, opStream, "%s", chunk.Error)})
				return
			}
			if chunk.Message.Content != "" && !emit(driven.ChatDelta{Text: chunk.Message.Content}) {
				return
			}
			if chunk.Done {
				return
			}
		}
	}()
	return out, nil
}

func (s *LLMService) send(
	ctx context.Context,
	messages []domain.ChatMessage,
	opts driven.ChatOptions,
) (*http.Response, error) {
	reqBody := chatRequest{
		Model:    s.model,
		Messages: make([]chatMessage, len(messages)),
		Stream:   true,
	}
	for i, msg := range messages {
		reqBody.Messages[i] = chatMessage{Role: string(msg.Role), Content: msg.Content}
	}
	if opts.MaxTokens > 0 || opts.Temperature > 0 {
		reqBody.Options = &chatOptions{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
		}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, gateway.TransportError(provider, opStream, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, gateway.StatusError(provider, opStream, resp)
	}
	return resp, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return gateway.TransportError(provider, "ping", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return gateway.StatusError(provider, "ping", resp)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
