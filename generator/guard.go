package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// Guard paces and circuit-breaks calls to one upstream API.
// It never retries: a failed call is reported as-is.
type Guard struct {
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewGuard creates a Guard. rpm <= 0 disables pacing.
func NewGuard(name string, rpm int) *Guard {
	limit := rate.Inf
	burst := 1
	if rpm > 0 {
		limit = rate.Limit(float64(rpm) / 60.0)
		burst = max(rpm/10, 1)
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool { return !upstreamFailure(err) },
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return &Guard{breaker: breaker, limiter: rate.NewLimiter(limit, burst)}
}

// upstreamFailure reports whether err says the upstream itself is unhealthy.
// Client errors (4xx: bad key, quota, bad request) and caller cancellation
// belong to one caller and must not open the breaker for everyone else.
func upstreamFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if code, ok := statusCode(err); ok && code >= 400 && code < 500 {
		return false
	}
	return true
}

func statusCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	var oaErr *openai.Error
	if errors.As(err, &oaErr) && oaErr != nil {
		return oaErr.StatusCode, true
	}
	return 0, false
}

// Do waits for the limiter and runs fn through the breaker.
func (g *Guard) Do(ctx context.Context, fn func() (any, error)) (any, error) {
	if g == nil {
		return fn()
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	out, err := g.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s unavailable: %w", g.breaker.Name(), err)
	}
	return out, err
}
