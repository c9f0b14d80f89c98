// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package formatter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// submitWithRetry passes the gate and calls the provider, retrying
// transient failures with backoff base·2^(attempt-1). Each call gets its
// own timeout; expiry of that timeout is transient and does not touch ctx.
func submitWithRetry(ctx context.Context, p Provider, gate *Gate, req Request, maxRetries int, timeout time.Duration, log logrus.FieldLogger) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			log.WithFields(logrus.Fields{
				"chunk":   req.Index,
				"attempt": attempt,
				"backoff": backoff,
			}).Warnf("retrying after transient error: %v", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		if _, err := gate.Wait(ctx); err != nil {
			return "", err
		}

		text, err := callOnce(ctx, p, req, timeout)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		var te *TransientError
		if !errors.As(err, &te) {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

func callOnce(ctx context.Context, p Provider, req Request, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	text, err := p.Submit(ctx, req)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		var te *TransientError
		if !errors.As(err, &te) {
			err = &TransientError{Provider: p.Name(), Err: err}
		}
	}
	return text, err
}
