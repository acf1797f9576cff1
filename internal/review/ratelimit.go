package review

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/paperlens/paperlens/internal/logger"
)

const (
	// Sustained token throughput allowed against the reviewer model,
	// kept under the provider limit to leave safety margin.
	tokensPerSecond = 30000
	// Burst allows short bursts above the sustained rate.
	burstTokens = 60000

	// Retry configuration for transient failures (rate limits, network).
	maxRetries     = 3
	baseRetryDelay = 1 * time.Second
	maxRetryDelay  = 16 * time.Second
)

// reviewerRateLimiter is shared by all concurrent reviewer tasks so one
// review session cannot starve another.
var reviewerRateLimiter = rate.NewLimiter(rate.Limit(tokensPerSecond), burstTokens)

// RateLimitedCall wraps an outbound reviewer-service call with rate limiting
// and bounded retry. It waits for limiter approval before the first attempt
// and retries with exponential backoff on transient errors only.
func RateLimitedCall[T any](ctx context.Context, estimatedTokens int, log logger.Logger, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := reviewerRateLimiter.WaitN(ctx, estimatedTokens); err != nil {
		return zero, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(baseRetryDelay) * math.Pow(2, float64(attempt-1)))
			if delay > maxRetryDelay {
				delay = maxRetryDelay
			}

			log.Info("Retry attempt %d/%d after %v delay", attempt, maxRetries, delay)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		result, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				log.Info("Retry succeeded on attempt %d", attempt)
			}
			return result, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if !isTransientError(err) {
			return zero, err
		}

		log.Warn("Transient error on attempt %d/%d: %v", attempt+1, maxRetries+1, err)
	}

	return zero, fmt.Errorf("max retries (%d) exceeded, last error: %w", maxRetries, lastErr)
}

// isTransientError reports whether an error is worth retrying: provider rate
// limits, server-side failures, or network-level interruptions.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	for _, marker := range []string{
		"429", "rate limit", "rate_limit_exceeded", "Too Many Requests",
		"500", "502", "503", "504",
		"connection reset", "connection refused", "EOF",
		"timeout", "temporary failure",
	} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}
