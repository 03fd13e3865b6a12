package contract

import (
	"errors"
	"fmt"
	"time"
)

// AuthError indicates an invalid or missing credential. Fatal, never retried.
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Msg)
}

// NotFoundError indicates an unknown repository, workflow or run. Fatal,
// never retried: a 404 means misconfiguration, not transient load.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Resource)
}

// RateLimitError indicates the quota is exhausted and the wait until reset
// exceeds the configured ceiling. Shorter waits are absorbed internally by
// the limiter and never reach the caller.
type RateLimitError struct {
	Reset time.Time
	Wait  time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exhausted: reset at %s requires waiting %s", e.Reset.Format(time.RFC3339), e.Wait)
}

// TransientError indicates a connection or 5xx failure that persisted through
// every retry attempt.
type TransientError struct {
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// SchemaError indicates the store is missing required tables and could not be
// reinitialized.
type SchemaError struct {
	Missing []string
	Err     error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("store schema invalid (missing %v): %v", e.Missing, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// IsAuthError reports whether err wraps an AuthError.
func IsAuthError(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// IsNotFoundError reports whether err wraps a NotFoundError.
func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsRetryable reports whether err represents a condition worth another
// attempt. Auth, not-found and rate-limit ceilings are final.
func IsRetryable(err error) bool {
	var auth *AuthError
	var notFound *NotFoundError
	var rate *RateLimitError
	if errors.As(err, &auth) || errors.As(err, &notFound) || errors.As(err, &rate) {
		return false
	}
	return err != nil
}
