package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"time"

	"github.com/lib/pq"
)

const (
	maxAttempts  = 3
	retryBackoff = 50 * time.Millisecond
)

// retryable reports whether err is a transient failure worth another attempt:
// dropped connections, serialization failures and deadlocks.
func retryable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch {
	case pqErr.Code.Class() == "08":
		return true
	case pqErr.Code == "40001", pqErr.Code == "40P01":
		return true
	}
	return false
}

// withRetry runs op up to maxAttempts times with linear backoff.
func withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = op(); err == nil || !retryable(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return err
}
