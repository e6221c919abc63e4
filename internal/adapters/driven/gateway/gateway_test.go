package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func fastPolicy(retries int) *Policy {
	return &Policy{MaxRetries: retries, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

func TestPolicy_Do_RetriesRetryable(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return &domain.GatewayError{Provider: "test", Op: "embed", StatusCode: 503, Retryable: true}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPolicy_Do_StopsAfterMaxRetries(t *testing.T) {
	calls := 0
	err := fastPolicy(2).Do(context.Background(), func(context.Context) error {
		calls++
		return &domain.GatewayError{Provider: "test", Op: "embed", StatusCode: 429, Retryable: true}
	})

	assert.ErrorIs(t, err, domain.ErrGateway)
	assert.Equal(t, 3, calls)
}

func TestPolicy_Do_PermanentFailure(t *testing.T) {
	calls := 0
	err := fastPolicy(5).Do(context.Background(), func(context.Context) error {
		calls++
		return &domain.GatewayError{Provider: "test", Op: "embed", StatusCode: 401}
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicy_Do_NilPolicy(t *testing.T) {
	var p *Policy
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return &domain.GatewayError{Retryable: true}
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicy_Do_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Policy{MaxRetries: 5, BaseDelay: time.Hour}

	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return &domain.GatewayError{Retryable: true, Err: errors.New("boom")}
	})

	assert.ErrorIs(t, err, domain.ErrGateway)
	assert.Equal(t, 1, calls)
}

func TestPolicy_Backoff(t *testing.T) {
	p := &Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: 350 * time.Millisecond}

	assert.Equal(t, 100*time.Millisecond, p.backoff(0))
	assert.Equal(t, 200*time.Millisecond, p.backoff(1))
	assert.Equal(t, 350*time.Millisecond, p.backoff(2))
	assert.Equal(t, 350*time.Millisecond, p.backoff(10))
}

func TestNewPolicy(t *testing.T) {
	p := NewPolicy(2, 0)
	assert.Equal(t, 2, p.MaxRetries)
	assert.Nil(t, p.Limiter)

	p = NewPolicy(1, 0.5)
	require.NotNil(t, p.Limiter)
	assert.Equal(t, 1, p.Limiter.Burst())
}

func TestStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(strings.Repeat("x", 2000)))
	}))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	gwErr := StatusError("openai", "embed", resp)
	assert.Equal(t, 429, gwErr.StatusCode)
	assert.True(t, gwErr.Retryable)
	assert.Len(t, gwErr.Err.Error(), maxErrorBody)
}

func TestTransportError(t *testing.T) {
	assert.False(t, TransportError("p", "op", context.Canceled).Retryable)
	assert.True(t, TransportError("p", "op", context.DeadlineExceeded).Retryable)
	assert.False(t, TransportError("p", "op", errors.New("bad url")).Retryable)
}
