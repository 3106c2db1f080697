// Package tokenizer mints and verifies the stateless session bearer token:
// three base64url segments (header, payload, signature), HMAC-SHA256 signed.
package tokenizer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openclave/walletauth/core"
	"github.com/openclave/walletauth/ports"
)

// HMACTokenizer signs session tokens with a server-held symmetric secret.
type HMACTokenizer struct {
	secret   []byte
	lifetime time.Duration
}

// NewHMACTokenizer creates a tokenizer. The secret must already have passed
// config validation; it is never defaulted here.
func NewHMACTokenizer(secret string, lifetime time.Duration) *HMACTokenizer {
	return &HMACTokenizer{secret: []byte(secret), lifetime: lifetime}
}

var _ ports.SessionTokenizer = (*HMACTokenizer)(nil)

var encodedHeader = func() string {
	raw, _ := json.Marshal(header{Alg: algHS256, Typ: typToken})
	return base64.RawURLEncoding.EncodeToString(raw)
}()

// Issue mints a token asserting that address completed the challenge nonce.
func (t *HMACTokenizer) Issue(address, nonce string) (string, *core.SessionClaims, error) {
	now := time.Now()
	claims := &core.SessionClaims{
		Address:   address,
		Nonce:     nonce,
		TokenID:   uuid.New().String(),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(t.lifetime).Unix(),
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", nil, fmt.Errorf("marshal claims: %w", err)
	}

	signingInput := encodedHeader + "." + base64.RawURLEncoding.EncodeToString(payload)
	token := signingInput + "." + t.sign(signingInput)

	return token, claims, nil
}

// Verify checks a token's shape, signature, and expiry, returning its claims.
func (t *HMACTokenizer) Verify(token string) (*core.SessionClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, core.ErrInvalidToken
	}

	signingInput := parts[0] + "." + parts[1]
	expected := t.sign(signingInput)
	// Constant-time comparison of the two encoded MACs.
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return nil, core.ErrInvalidToken
	}

	rawHeader, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, core.ErrInvalidToken
	}
	var h header
	if err := json.Unmarshal(rawHeader, &h); err != nil || h.Alg != algHS256 || h.Typ != typToken {
		return nil, core.ErrInvalidToken
	}

	rawPayload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, core.ErrInvalidToken
	}
	var claims core.SessionClaims
	if err := json.Unmarshal(rawPayload, &claims); err != nil {
		return nil, core.ErrInvalidToken
	}

	if claims.Address == "" || claims.ExpiresAt == 0 {
		return nil, core.ErrInvalidToken
	}
	if time.Now().Unix() >= claims.ExpiresAt {
		return nil, core.ErrTokenExpired
	}

	return &claims, nil
}

func (t *HMACTokenizer) sign(input string) string {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(input))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
