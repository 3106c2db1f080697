package core

import "time"

// Challenge represents one outstanding sign-in attempt, keyed by nonce.
type Challenge struct {
	Nonce   string `json:"nonce"`
	Address string `json:"address"`  // checksummed signer address
	Domain  string `json:"domain"`   // relying-party domain the message was issued for
	ChainID int64  `json:"chain_id"` // informational, round-tripped into the message
	// Statement and URI are persisted with the record so verification rebuilds
	// the exact signed bytes even if the configured values change in between.
	Statement string `json:"statement,omitempty"`
	URI       string `json:"uri"`
	IssuedAt  string `json:"issued_at"` // embedded verbatim in the signed message
	// CreatedAt is the server-side creation instant in epoch millis. Expiry
	// math uses this, never the client-visible IssuedAt.
	CreatedAt int64 `json:"created_at"`
}

// Age returns how long ago the challenge was created.
func (c *Challenge) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(c.CreatedAt))
}

// Expired reports whether the challenge is older than ttl. Checked explicitly
// at read time even when the store claims the key exists, so a TTL-unit or
// clock mismatch in the store cannot extend a challenge's lifetime.
func (c *Challenge) Expired(now time.Time, ttl time.Duration) bool {
	return c.Age(now) > ttl
}

// SessionClaims are the fields carried by a session token. Tokens are not
// stored server-side; validity is entirely signature plus expiry.
type SessionClaims struct {
	Address   string `json:"address"`
	Nonce     string `json:"nonce"` // the nonce that produced this token
	TokenID   string `json:"jti"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// RateLimitResult is the outcome of a rate-limit check.
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}
