package ports

import (
	"context"
	"time"

	"github.com/openclave/walletauth/core"
)

// KeyValueStore is the minimal surface the primary (shared) store must expose:
// set-with-TTL, get, delete. Any store with per-key expiry fits.
type KeyValueStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns ("", nil) when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	// Del reports whether this call removed the key.
	Del(ctx context.Context, key string) (bool, error)
}

// ChallengeStore holds outstanding challenges keyed by nonce.
type ChallengeStore interface {
	Put(ctx context.Context, challenge *core.Challenge) error
	// Get returns core.ErrChallengeNotFound for absent or expired nonces.
	Get(ctx context.Context, nonce string) (*core.Challenge, error)
	// Delete attempts every tier. It reports whether this call consumed the
	// nonce, which is how concurrent verifications resolve to at most one
	// winner (first delete wins).
	Delete(ctx context.Context, nonce string) (bool, error)
}
