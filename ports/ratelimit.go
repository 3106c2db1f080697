package ports

import (
	"context"

	"github.com/openclave/walletauth/core"
)

// RateLimiter enforces per-(identity, operation) fixed-window limits.
// Implementations fail open: when the backing store is unavailable the
// request is allowed and the degradation logged.
type RateLimiter interface {
	Check(ctx context.Context, identity, operation string) (core.RateLimitResult, error)
}
