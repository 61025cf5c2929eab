package cache

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by the cache backends and the callers that retry
// around them.
var (
	// ErrNotFound reports a score or layout that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNetwork reports a transport failure while fetching a remote
	// score: timeouts, refused connections, 5xx responses.
	ErrNetwork = errors.New("network error")

	// ErrCacheMiss reports a key with no live entry.
	ErrCacheMiss = errors.New("cache miss")
)

// RetryableError marks an error as transient. RetryWithBackoff retries only
// errors carrying this marker; everything else fails fast.
type RetryableError struct{ Err error }

// Retryable marks err as transient. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err carries the transient marker anywhere in
// its chain.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryWithBackoff runs fn up to three times, doubling a one-second wait
// between attempts. Only errors marked Retryable are retried; the context
// can cut the wait short.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	const maxAttempts = 3
	wait := time.Second

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) || attempt == maxAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			wait *= 2
		}
	}
}
