package provider

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const defaultRetryBackoff = 500 * time.Millisecond

type retrying struct {
	next       CompletionService
	maxRetries uint64
	backoff    time.Duration
	logger     *zap.Logger
}

// WithRetry retries failed completions with exponential backoff. Context
// cancellation and deadline errors are not retried.
func WithRetry(next CompletionService, maxRetries int, backoff time.Duration, logger *zap.Logger) CompletionService {
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &retrying{next: next, maxRetries: uint64(maxRetries), backoff: backoff, logger: logger}
}

func (r *retrying) Complete(ctx context.Context, prompt string) (string, error) {
	b := retry.WithMaxRetries(r.maxRetries, retry.NewExponential(r.backoff))
	var (
		out     string
		attempt int
	)
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		var callErr error
		out, callErr = r.next.Complete(ctx, prompt)
		if callErr == nil {
			return nil
		}
		if errors.Is(callErr, context.Canceled) || errors.Is(callErr, context.DeadlineExceeded) {
			return callErr
		}
		r.logger.Warn("completion failed, retrying", zap.Int("attempt", attempt), zap.Error(callErr))
		return retry.RetryableError(callErr)
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
