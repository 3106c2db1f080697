package ratelimit

import (
	"context"
	"time"

	"github.com/openclave/walletauth/core"
	"github.com/openclave/walletauth/ports"
)

// Unlimited allows everything. Used when no shared store is configured, which
// is the permanent form of the limiter's fail-open behavior.
type Unlimited struct{}

var _ ports.RateLimiter = Unlimited{}

func (Unlimited) Check(_ context.Context, _, _ string) (core.RateLimitResult, error) {
	return core.RateLimitResult{Allowed: true, Remaining: 0, ResetAt: time.Now()}, nil
}
