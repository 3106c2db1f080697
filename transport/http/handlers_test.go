package http

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openclave/walletauth/adapters/ratelimit"
	"github.com/openclave/walletauth/adapters/store"
	"github.com/openclave/walletauth/adapters/tokenizer"
	"github.com/openclave/walletauth/core"
	"github.com/openclave/walletauth/ports"
	"github.com/openclave/walletauth/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, limiter ports.RateLimiter) (*gin.Engine, *store.TieredStore) {
	t.Helper()

	challengeStore := store.NewTieredStore(nil, 10*time.Minute, zap.NewNop())
	tk := tokenizer.NewHMACTokenizer("0123456789abcdef0123456789abcdef", 2*time.Hour)
	svc := service.NewAuthService(challengeStore, limiter, tk, nil, service.Options{
		Domain:    "example.com",
		Statement: "Sign in with your wallet to continue.",
		URI:       "https://example.com",
		ChainID:   1,
	}, zap.NewNop())

	router := SetupRouter(svc, zap.NewNop(), RouterOptions{Degraded: challengeStore.Degraded})
	return router, challengeStore
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func signPersonal(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	digest := crypto.Keccak256Hash([]byte(prefixed))
	sig, err := crypto.Sign(digest.Bytes(), key)
	require.NoError(t, err)
	sig[64] += 27
	return "0x" + hex.EncodeToString(sig)
}

func TestChallengeVerifyFlow(t *testing.T) {
	router, _ := newTestRouter(t, ratelimit.Unlimited{})

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	w := postJSON(t, router, "/auth/challenge", gin.H{"address": address})
	require.Equal(t, http.StatusOK, w.Code)
	challenge := decodeJSON(t, w)
	nonce := challenge["nonce"].(string)
	message := challenge["message"].(string)
	assert.Equal(t, "example.com", challenge["domain"])

	w = postJSON(t, router, "/auth/verify", gin.H{
		"address":   address,
		"signature": signPersonal(t, key, message),
		"nonce":     nonce,
	})
	require.Equal(t, http.StatusOK, w.Code)
	verified := decodeJSON(t, w)
	token := verified["token"].(string)
	assert.Equal(t, address, verified["address"])
	assert.Greater(t, verified["expiresAt"].(float64), float64(time.Now().Unix()))

	// A second verify with the same nonce is rejected generically.
	w = postJSON(t, router, "/auth/verify", gin.H{
		"address":   address,
		"signature": signPersonal(t, key, message),
		"nonce":     nonce,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "challenge invalid or expired", decodeJSON(t, w)["error"])

	// The minted token opens the protected surface.
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, address, decodeJSON(t, rec)["address"])
}

func TestChallengeInvalidAddress(t *testing.T) {
	router, _ := newTestRouter(t, ratelimit.Unlimited{})

	w := postJSON(t, router, "/auth/challenge", gin.H{"address": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, router, "/auth/challenge", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyWrongSigner(t *testing.T) {
	router, _ := newTestRouter(t, ratelimit.Unlimited{})

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()
	otherKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	w := postJSON(t, router, "/auth/challenge", gin.H{"address": address})
	require.Equal(t, http.StatusOK, w.Code)
	challenge := decodeJSON(t, w)

	w = postJSON(t, router, "/auth/verify", gin.H{
		"address":   address,
		"signature": signPersonal(t, otherKey, challenge["message"].(string)),
		"nonce":     challenge["nonce"].(string),
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid signature", decodeJSON(t, w)["error"])
}

func TestVerifyUnknownNonce(t *testing.T) {
	router, _ := newTestRouter(t, ratelimit.Unlimited{})

	w := postJSON(t, router, "/auth/verify", gin.H{
		"address":   "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"signature": "0xdeadbeef",
		"nonce":     "unknown",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "challenge invalid or expired", decodeJSON(t, w)["error"])
}

func TestRateLimitedResponse(t *testing.T) {
	router, _ := newTestRouter(t, rejectingLimiter{})

	w := postJSON(t, router, "/auth/challenge", gin.H{
		"address": "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	})
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	body := decodeJSON(t, w)
	assert.GreaterOrEqual(t, body["retryAfterSeconds"].(float64), float64(1))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t, ratelimit.Unlimited{})

	for _, header := range []string{"", "nope", "Bearer garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
}

func TestHealthz(t *testing.T) {
	router, challengeStore := newTestRouter(t, ratelimit.Unlimited{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "ok", body["status"])
	// No primary configured, so the store reports itself degraded.
	assert.Equal(t, challengeStore.Degraded(), body["storeDegraded"])
}

type rejectingLimiter struct{}

func (rejectingLimiter) Check(_ context.Context, _, operation string) (core.RateLimitResult, error) {
	resetAt := time.Now().Add(30 * time.Second)
	return core.RateLimitResult{Allowed: false, ResetAt: resetAt},
		&core.RateLimitError{Operation: operation, ResetAt: resetAt}
}
