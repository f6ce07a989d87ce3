package sync

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/tonimelisma/stellarsync/internal/remote"
)

// defaultBackoffBase is the first retry delay when the config multiplier is
// unusable. Each subsequent retry doubles it.
const defaultBackoffBase = 1 * time.Second

// fetchWithRetry runs fn with the endpoint's retry policy. Only transient
// upstream faults are retried, with exponential backoff, up to the
// configured attempt count; a rate-limit signal aborts immediately because
// continuing would worsen the condition, and a permanent reject aborts
// because repeating the same request cannot succeed. The last error
// surfaces when retries are exhausted.
//
// backoffBase overrides the config-derived first delay when positive; tests
// use a tiny base to run fast.
func fetchWithRetry[T any](
	ctx context.Context, endpoint string, cfg EndpointConfig,
	backoffBase time.Duration, logger *slog.Logger,
	fn func(context.Context) ([]T, error),
) ([]T, error) {
	if backoffBase <= 0 {
		backoffBase = time.Duration(cfg.BackoffMultiplier * float64(time.Second))
	}

	if backoffBase <= 0 {
		backoffBase = defaultBackoffBase
	}

	backoff := retry.WithMaxRetries(uint64(cfg.RetryAttempts), retry.NewExponential(backoffBase))

	var (
		records []T
		attempt int
	)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var fetchErr error

		records, fetchErr = fn(ctx)
		if fetchErr == nil {
			return nil
		}

		if errors.Is(fetchErr, remote.ErrUnavailable) {
			attempt++
			logger.Warn("retrying after transient upstream failure",
				slog.String("endpoint", endpoint),
				slog.Int("attempt", attempt),
				slog.Int("max_retries", cfg.RetryAttempts),
				slog.String("error", fetchErr.Error()),
			)

			return retry.RetryableError(fetchErr)
		}

		// Rate-limited and rejected requests are never retried.
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}
