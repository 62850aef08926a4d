package gateway

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidRequest = errors.New("invalid generation request")
	ErrKeyNotFound    = errors.New("api key not found")
	ErrKeyInactive    = errors.New("api key is inactive")
)

// RateLimitedError reports a denied admission together with how long the
// caller should wait before the window resets.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

// BackendError wraps a failure of the generation backend itself.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("generation backend error: %v", e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
