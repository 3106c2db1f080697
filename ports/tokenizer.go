package ports

import "github.com/openclave/walletauth/core"

// SessionTokenizer mints and validates stateless bearer tokens.
type SessionTokenizer interface {
	// Issue returns the encoded token and its claims for address/nonce.
	Issue(address, nonce string) (string, *core.SessionClaims, error)
	// Verify checks the token's signature and expiry and returns its claims.
	Verify(token string) (*core.SessionClaims, error)
}
