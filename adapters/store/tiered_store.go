package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openclave/walletauth/core"
	"github.com/openclave/walletauth/internal/metrics"
	"github.com/openclave/walletauth/ports"
)

const challengeKeyPrefix = "challenge:"

// defaultOpTimeout bounds every primary-store call so a hung network call
// cannot stall an authentication request.
const defaultOpTimeout = 3 * time.Second

// TieredStore implements ports.ChallengeStore over a shared primary store and
// an in-process fallback. A failed or unverified primary write degrades the
// store to fallback-only for the rest of the process lifetime; the state is a
// field here, not a package global, so it resets on restart and can be driven
// in tests by injecting a failing primary.
type TieredStore struct {
	primary   ports.KeyValueStore // nil when unconfigured
	fallback  *MemoryStore
	ttl       time.Duration
	opTimeout time.Duration
	log       *zap.Logger

	mu       sync.Mutex
	degraded bool
}

// NewTieredStore creates the dual-tier challenge store. primary may be nil,
// in which case the store runs fallback-only from the start.
func NewTieredStore(primary ports.KeyValueStore, ttl time.Duration, log *zap.Logger) *TieredStore {
	return &TieredStore{
		primary:   primary,
		fallback:  NewMemoryStore(),
		ttl:       ttl,
		opTimeout: defaultOpTimeout,
		log:       log,
	}
}

// Degraded reports whether the store has given up on the primary tier.
func (s *TieredStore) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.primary == nil || s.degraded
}

func (s *TieredStore) degrade(op string, err error) {
	s.mu.Lock()
	already := s.degraded
	s.degraded = true
	s.mu.Unlock()

	metrics.StoreFallbacks.WithLabelValues(op).Inc()
	if !already {
		s.log.Warn("primary challenge store degraded, using in-process fallback",
			zap.String("operation", op), zap.Error(err))
	}
}

// Put stores a challenge under its nonce. The primary write is verified by an
// immediate read-back; a silently dropped write is treated the same as an
// error and falls through to the fallback tier.
func (s *TieredStore) Put(ctx context.Context, challenge *core.Challenge) error {
	payload, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("marshal challenge: %w", err)
	}
	key := challengeKeyPrefix + challenge.Nonce

	if !s.Degraded() {
		err := s.putPrimary(ctx, key, string(payload))
		if err == nil {
			return nil
		}
		s.degrade("put", err)
	}

	return s.fallback.Set(ctx, key, string(payload), s.ttl)
}

func (s *TieredStore) putPrimary(ctx context.Context, key, payload string) error {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.primary.Set(opCtx, key, payload, s.ttl); err != nil {
		return err
	}

	// Read back to confirm the write actually landed.
	stored, err := s.primary.Get(opCtx, key)
	if err != nil {
		return err
	}
	if stored != payload {
		return fmt.Errorf("%w: write verification missed", core.ErrStoreUnavailable)
	}
	return nil
}

// Get fetches a challenge by nonce, trying the primary first unless degraded.
// A stored record older than the TTL is deleted and reported absent, even if
// the store still holds the key.
func (s *TieredStore) Get(ctx context.Context, nonce string) (*core.Challenge, error) {
	key := challengeKeyPrefix + nonce

	var raw string
	if !s.Degraded() {
		opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
		value, err := s.primary.Get(opCtx, key)
		cancel()
		if err != nil {
			s.degrade("get", err)
		} else {
			raw = value
		}
	}

	if raw == "" {
		value, err := s.fallback.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		raw = value
	}

	if raw == "" {
		return nil, core.ErrChallengeNotFound
	}

	var challenge core.Challenge
	if err := json.Unmarshal([]byte(raw), &challenge); err != nil {
		s.log.Warn("dropping undecodable challenge record", zap.String("nonce", nonce), zap.Error(err))
		_, _ = s.Delete(ctx, nonce)
		return nil, core.ErrChallengeNotFound
	}

	if challenge.Expired(time.Now(), s.ttl) {
		_, _ = s.Delete(ctx, nonce)
		return nil, core.ErrChallengeNotFound
	}

	return &challenge, nil
}

// Delete removes a nonce from both tiers unconditionally. The returned bool
// reports whether this call consumed a live record in either tier.
func (s *TieredStore) Delete(ctx context.Context, nonce string) (bool, error) {
	key := challengeKeyPrefix + nonce

	var consumed bool
	if s.primary != nil {
		opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
		removed, err := s.primary.Del(opCtx, key)
		cancel()
		if err != nil {
			// Deletion failures don't degrade: redis expiry still bounds the
			// record's lifetime, and the explicit age check covers the rest.
			s.log.Warn("primary delete failed", zap.String("nonce", nonce), zap.Error(err))
		}
		consumed = removed
	}

	removed, err := s.fallback.Del(ctx, key)
	return consumed || removed, err
}

var _ ports.ChallengeStore = (*TieredStore)(nil)
