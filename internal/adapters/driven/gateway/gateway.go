// Package gateway holds the call policy shared by the embedding and LLM
// adapters: bounded retries with exponential backoff, optional rate
// limiting, and conversion of transport failures into *domain.GatewayError.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Default policy values.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 500 * time.Millisecond
	DefaultMaxDelay   = 8 * time.Second

	// maxErrorBody caps how much of a failed response is kept in the error.
	maxErrorBody = 512
)

// Policy decides how often and how fast a provider is called.
// The zero value makes a single attempt without rate limiting.
type Policy struct {
	// MaxRetries is how many times a retryable failure is retried.
	MaxRetries int

	// BaseDelay is the wait before the first retry; it doubles each attempt.
	BaseDelay time.Duration

	// MaxDelay caps the wait between attempts.
	MaxDelay time.Duration

	// Limiter throttles attempts. Nil disables limiting.
	Limiter *rate.Limiter
}

// NewPolicy builds a policy from retry and rate settings.
// A non-positive requestsPerSecond disables limiting.
func NewPolicy(maxRetries int, requestsPerSecond float64) *Policy {
	p := &Policy{
		MaxRetries: maxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
	}
	if requestsPerSecond > 0 {
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		p.Limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
	return p
}

// Do runs fn until it succeeds, fails permanently, or retries run out.
// Only errors for which domain.IsRetryable is true are retried.
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if p == nil {
		p = &Policy{}
	}

	var err error
	for attempt := 0; ; attempt++ {
		if p.Limiter != nil {
			if waitErr := p.Limiter.Wait(ctx); waitErr != nil {
				if err != nil {
					return err
				}
				return waitErr
			}
		}

		err = fn(ctx)
		if err == nil || !domain.IsRetryable(err) || attempt >= p.MaxRetries {
			return err
		}

		delay := p.backoff(attempt)
		logger.Debug("gateway: attempt %d failed, retrying in %s: %v", attempt+1, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

// backoff returns the wait after the given zero-based attempt.
func (p *Policy) backoff(attempt int) time.Duration {
	delay := p.BaseDelay
	if delay <= 0 {
		return 0
	}
	for i := 0; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return delay
}

// NewHTTPClient returns a client for provider calls. The timeout bounds the
// wait for response headers only, so streamed bodies may outlive it.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	return &http.Client{Transport: transport}
}

// TransportError wraps a failure to reach the provider.
func TransportError(provider, op string, err error) *domain.GatewayError {
	return &domain.GatewayError{
		Provider:  provider,
		Op:        op,
		Retryable: isTransient(err),
		Err:       err,
	}
}

// StatusError builds an error from a non-2xx response, reading a bounded
// prefix of the body for context.
func StatusError(provider, op string, resp *http.Response) *domain.GatewayError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &domain.GatewayError{
		Provider:   provider,
		Op:         op,
		StatusCode: resp.StatusCode,
		Retryable:  domain.RetryableStatus(resp.StatusCode),
		Err:        errors.New(msg),
	}
}

// ResponseError wraps a malformed provider response. These are not retried.
func ResponseError(provider, op string, format string, args ...any) *domain.GatewayError {
	return &domain.GatewayError{
		Provider: provider,
		Op:       op,
		Err:      fmt.Errorf(format, args...),
	}
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}
