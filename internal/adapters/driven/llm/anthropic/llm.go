// Package anthropic provides an LLM service adapter using the Anthropic Messages API.
package anthropic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/gateway"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

const (
	provider = "anthropic"
	opStream = "stream chat"
)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 1024

	anthropicVersion = "2023-06-01"
)

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the LLM model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout bounds the wait for response headers (default: 120s).
	Timeout time.Duration

	// Policy controls retries of failed calls. Nil makes single attempts.
	Policy *gateway.Policy
}

// LLMService provides chat completions using the Anthropic API.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	policy  *gateway.Policy
}

type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	System      string            `json:"system,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
	Stream      bool              `json:"stream"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// streamEvent is the data payload of one server-sent event.
type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &LLMService{
		client:  gateway.NewHTTPClient(cfg.Timeout),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		policy:  cfg.Policy,
	}, nil
}

// StreamChat streams text deltas from content_block_delta events.
// An error event, such as overloaded_error, ends the stream with a gateway error.
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

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			data, ok := strings.CutPrefix(scanner.Text(), "data:")
			if !ok {
				continue
			}

			var event streamEvent
			if err := json.Unmarshal([]byte(strings.TrimSpace(data)), &event); err != nil {
				logger.Warn("anthropic: skipping malformed stream event: %v", err)
				continue
			}

			switch event.Type {
			case "content_block_delta":
				if event.Delta.Text == "" {
					continue
				}
				if !emit(driven.ChatDelta{Text: event.Delta.Text}) {
					return
				}
			case "message_stop":
				return
			case "error":
				emit(driven.ChatDelta{Err: streamError(event)})
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			logger.Warn("anthropic: stream interrupted: %v", err)
		}
	}()
	return out, nil
}

// streamError converts an error event into a gateway error.
func streamError(event streamEvent) *domain.GatewayError {
	if event.Error == nil {
		return gateway.ResponseError(provider, opStream, "stream error")
	}
	gwErr := gateway.ResponseError(provider, opStream, "%s: %s", event.Error.Type, event.Error.Message)
	gwErr.Retryable = event.Error.Type == "overloaded_error"
	return gwErr
}

// send posts a messages request. System messages are lifted into the
// top-level system field.
func (s *LLMService) send(
	ctx context.Context,
	messages []domain.ChatMessage,
	opts driven.ChatOptions,
) (*http.Response, error) {
	var systemParts []string
	var chatMessages []messagesMessage
	for _, msg := range messages {
		if msg.Role == domain.RoleSystem {
			systemParts = append(systemParts, msg.Content)
			continue
		}
		chatMessages = append(chatMessages, messagesMessage{Role: string(msg.Role), Content: msg.Content})
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	reqBody := messagesRequest{
		Model:       s.model,
		Messages:    chatMessages,
		MaxTokens:   maxTokens,
		System:      strings.Join(systemParts, "\n\n"),
		Temperature: opts.Temperature,
		Stream:      true,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

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

// Ping validates the API key via the /v1/models endpoint.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("anthropic: failed to create ping request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

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
