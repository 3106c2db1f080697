package core

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidAddress = errors.New("invalid ethereum address")
	ErrInvalidDomain  = errors.New("invalid domain")

	// ErrChallengeNotFound covers absent, expired, and mismatched challenges
	// alike. The caller-facing message is deliberately the same for all three
	// so responses cannot be used as an existence oracle.
	ErrChallengeNotFound = errors.New("challenge invalid or expired")

	ErrInvalidSignature = errors.New("invalid signature")

	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")

	// ErrStoreUnavailable is internal only; it triggers fallback for the
	// challenge store and fail-open for the rate limiter, and is never
	// returned to a caller as a distinct error.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// RateLimitError reports a rejected request together with the window reset,
// so the transport layer can fill in Retry-After.
type RateLimitError struct {
	Operation string
	ResetAt   time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s", e.Operation)
}

// RetryAfter returns the whole seconds until the window resets, at least 1.
func (e *RateLimitError) RetryAfter(now time.Time) int {
	secs := int(e.ResetAt.Sub(now).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}
