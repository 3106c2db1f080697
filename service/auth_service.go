// Package service orchestrates the two protocol steps: issue a challenge,
// verify its signature and mint a session token.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/openclave/walletauth/core"
	"github.com/openclave/walletauth/internal/eth"
	"github.com/openclave/walletauth/internal/metrics"
	"github.com/openclave/walletauth/internal/siwe"
	"github.com/openclave/walletauth/ports"
)

const (
	opChallenge = "challenge"
	opVerify    = "verify"

	siweVersion = "1"
)

// Options carries the protocol parameters for the orchestrator.
type Options struct {
	Domain    string // default relying-party domain, lower-cased
	Statement string
	URI       string
	ChainID   int64 // default network context
}

// ChallengeResponse is returned by IssueChallenge.
type ChallengeResponse struct {
	Nonce   string `json:"nonce"`
	Message string `json:"message"`
	Domain  string `json:"domain"`
}

// VerifyResponse is returned by Verify.
type VerifyResponse struct {
	Token     string `json:"token"`
	Address   string `json:"address"`
	ExpiresAt int64  `json:"expiresAt"`
}

// AuthService composes the validator, nonce generator, message formatter,
// challenge store, rate limiter, and tokenizer into the protocol state
// machine. It is stateless per request; instances coordinate only through
// the shared store and limiter.
type AuthService struct {
	store     ports.ChallengeStore
	limiter   ports.RateLimiter
	tokenizer ports.SessionTokenizer
	eventPub  ports.EventPublisher // optional
	opts      Options
	log       *zap.Logger
}

// NewAuthService creates a new orchestrator. eventPub may be nil.
func NewAuthService(
	store ports.ChallengeStore,
	limiter ports.RateLimiter,
	tokenizer ports.SessionTokenizer,
	eventPub ports.EventPublisher,
	opts Options,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		store:     store,
		limiter:   limiter,
		tokenizer: tokenizer,
		eventPub:  eventPub,
		opts:      opts,
		log:       log,
	}
}

// IssueChallenge validates the address, applies the issue rate limit, and
// stores a fresh challenge. The returned message is the exact byte sequence
// the wallet must sign.
func (s *AuthService) IssueChallenge(ctx context.Context, address string, chainID int64, domain string) (*ChallengeResponse, error) {
	normalized, err := core.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	domain, err = s.resolveDomain(domain)
	if err != nil {
		return nil, err
	}
	if chainID == 0 {
		chainID = s.opts.ChainID
	}

	if _, err := s.limiter.Check(ctx, strings.ToLower(normalized), opChallenge); err != nil {
		return nil, err
	}

	nonce, err := core.GenerateNonce()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	challenge := &core.Challenge{
		Nonce:     nonce,
		Address:   normalized,
		Domain:    domain,
		ChainID:   chainID,
		Statement: s.opts.Statement,
		URI:       s.opts.URI,
		IssuedAt:  now.Format(time.RFC3339),
		CreatedAt: now.UnixMilli(),
	}

	message := formatMessage(challenge)

	if err := s.store.Put(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to store challenge: %w", err)
	}

	metrics.ChallengesIssued.Inc()
	s.log.Debug("challenge issued",
		zap.String("address", normalized), zap.String("nonce", nonce))

	return &ChallengeResponse{Nonce: nonce, Message: message, Domain: domain}, nil
}

// Verify consumes a challenge: the nonce is deleted on every terminal path,
// successful or not, so it can never be replayed. The signed message is
// reconstructed from the stored record, never from request fields.
func (s *AuthService) Verify(ctx context.Context, address, signature, nonce string) (*VerifyResponse, error) {
	normalized, err := core.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	if nonce == "" || signature == "" {
		return nil, core.ErrChallengeNotFound
	}

	if _, err := s.limiter.Check(ctx, strings.ToLower(normalized), opVerify); err != nil {
		return nil, err
	}

	challenge, err := s.store.Get(ctx, nonce)
	if err != nil {
		metrics.Verifications.WithLabelValues("not_found").Inc()
		return nil, core.ErrChallengeNotFound
	}

	if !strings.EqualFold(challenge.Address, normalized) {
		// A forged request must not assert a different identity than the one
		// challenged. Delete so the nonce cannot be retried, and answer with
		// the same generic rejection as an unknown nonce.
		_, _ = s.store.Delete(ctx, nonce)
		metrics.Verifications.WithLabelValues("address_mismatch").Inc()
		s.log.Info("challenge address mismatch",
			zap.String("challenged", challenge.Address), zap.String("claimed", normalized))
		return nil, core.ErrChallengeNotFound
	}

	message := formatMessage(challenge)

	ok, err := eth.VerifySignature(message, signature, challenge.Address)
	if err != nil || !ok {
		_, _ = s.store.Delete(ctx, nonce)
		metrics.Verifications.WithLabelValues("invalid_signature").Inc()
		if err != nil {
			s.log.Info("signature recovery failed",
				zap.String("address", challenge.Address), zap.Error(err))
		}
		return nil, core.ErrInvalidSignature
	}

	// Consume before minting: with concurrent attempts on one nonce,
	// whichever request's delete lands first wins and the rest see the
	// challenge as already gone.
	consumed, err := s.store.Delete(ctx, nonce)
	if err != nil {
		s.log.Warn("failed to delete consumed challenge", zap.String("nonce", nonce), zap.Error(err))
	}
	if !consumed {
		metrics.Verifications.WithLabelValues("not_found").Inc()
		return nil, core.ErrChallengeNotFound
	}

	token, claims, err := s.tokenizer.Issue(challenge.Address, nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	metrics.Verifications.WithLabelValues("success").Inc()
	s.log.Info("wallet authenticated", zap.String("address", challenge.Address))

	if s.eventPub != nil {
		if err := s.eventPub.PublishLogin(ctx, challenge.Address, nonce, claims.TokenID); err != nil {
			// The token is already minted; event delivery is best-effort.
			s.log.Warn("failed to publish login event", zap.Error(err))
		}
	}

	return &VerifyResponse{
		Token:     token,
		Address:   challenge.Address,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// ValidateToken verifies a session token, for the bearer middleware.
func (s *AuthService) ValidateToken(token string) (*core.SessionClaims, error) {
	return s.tokenizer.Verify(token)
}

func (s *AuthService) resolveDomain(domain string) (string, error) {
	if domain == "" {
		return s.opts.Domain, nil
	}
	domain = strings.ToLower(domain)
	if strings.ContainsAny(domain, " \t\r\n") {
		return "", core.ErrInvalidDomain
	}
	return domain, nil
}

// formatMessage renders the message entirely from the stored record, so the
// verified bytes match what was signed even across a config change.
func formatMessage(c *core.Challenge) string {
	return siwe.Message{
		Domain:    c.Domain,
		Address:   c.Address,
		Statement: c.Statement,
		URI:       c.URI,
		Version:   siweVersion,
		ChainID:   c.ChainID,
		Nonce:     c.Nonce,
		IssuedAt:  c.IssuedAt,
	}.String()
}

// IsRateLimited unwraps a RateLimitError if err carries one.
func IsRateLimited(err error) (*core.RateLimitError, bool) {
	var rle *core.RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}
