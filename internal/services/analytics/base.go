package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"FinCast/pkg/config"
	xhttp "FinCast/pkg/http"
	applogger "FinCast/pkg/logger"
)

// HTTPServiceBase is the shared transport for model-server clients: JSON
// POSTs behind a circuit breaker with exponential-backoff retries.
type HTTPServiceBase struct {
	baseURL    string
	client     *xhttp.Client
	breaker    *gobreaker.CircuitBreaker
	maxElapsed time.Duration
	l          *applogger.Logger
}

// NewHTTPServiceBase builds the client from the model section of config.
func NewHTTPServiceBase(cfg *config.Config, l *applogger.Logger, opts ...xhttp.ClientOption) *HTTPServiceBase {
	timeout := cfg.Model.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	window := cfg.Model.BreakerWindow
	if window <= 0 {
		window = time.Minute
	}
	b := &HTTPServiceBase{
		baseURL:    cfg.Model.ServiceURL,
		client:     xhttp.NewClient(append([]xhttp.ClientOption{xhttp.WithTimeout(timeout)}, opts...)...),
		maxElapsed: cfg.Model.RetryMaxTime,
		l:          l,
	}
	b.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "model-service",
		Interval: window,
		Timeout:  window,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.ConsecutiveFailures >= 3 {
				return true
			}
			return c.Requests >= 20 && float64(c.TotalFailures)/float64(c.Requests) > 0.05
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn("circuit breaker state changed",
				applogger.String("breaker", name),
				applogger.String("from", from.String()),
				applogger.String("to", to.String()),
			)
		},
	})
	return b
}

// PostJSON posts payload to path under baseURL and decodes JSON into dest.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("model service client not initialized")
	}
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:  xhttp.MethodPost,
			URL:     b.baseURL + path,
			Headers: map[string]string{"Content-Type": "application/json"},
			Body:    payload,
		}, dest)
	})
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

// PostJSONWithRetry retries transient failures until RetryMaxTime elapses.
// Client errors and an open breaker are not retried.
func (b *HTTPServiceBase) PostJSONWithRetry(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	if b.maxElapsed <= 0 {
		return b.PostJSON(ctx, path, payload, dest)
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxElapsedTime = b.maxElapsed

	attempt := 0
	op := func() error {
		attempt++
		err := b.PostJSON(ctx, path, payload, dest)
		if err == nil || retryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		b.l.Debug("model service retry",
			applogger.String("path", path),
			applogger.Int("attempt", attempt),
			applogger.Duration("wait_ms", wait),
			applogger.Error(err),
		)
	}
	return backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify)
}

func retryable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
