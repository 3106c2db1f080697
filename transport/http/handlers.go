package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openclave/walletauth/core"
	"github.com/openclave/walletauth/service"
)

// AuthHandlers contains HTTP handlers for the auth endpoints.
type AuthHandlers struct {
	authService *service.AuthService
	log         *zap.Logger
}

// NewAuthHandlers creates new auth handlers.
func NewAuthHandlers(authService *service.AuthService, log *zap.Logger) *AuthHandlers {
	return &AuthHandlers{authService: authService, log: log}
}

// Challenge handles POST /auth/challenge.
func (h *AuthHandlers) Challenge(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
		ChainID int64  `json:"chainId"`
		Domain  string `json:"domain"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	resp, err := h.authService.IssueChallenge(c.Request.Context(), req.Address, req.ChainID, req.Domain)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Verify handles POST /auth/verify.
func (h *AuthHandlers) Verify(c *gin.Context) {
	var req struct {
		Address   string `json:"address" binding:"required"`
		Signature string `json:"signature" binding:"required"`
		Nonce     string `json:"nonce" binding:"required"`
		ChainID   int64  `json:"chainId"`
		Domain    string `json:"domain"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	resp, err := h.authService.Verify(c.Request.Context(), req.Address, req.Signature, req.Nonce)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated wallet address.
func (h *AuthHandlers) Me(c *gin.Context) {
	address, exists := c.Get(contextKeyAddress)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": address})
}

// Authorize reports success for any request that passed the auth middleware.
func (h *AuthHandlers) Authorize(c *gin.Context) {
	address, exists := c.Get(contextKeyAddress)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"authorized": true, "address": address})
}

// renderError maps service errors onto the HTTP surface. Store and signature
// detail stays in the logs; callers only ever see one of two generic
// rejection messages.
func (h *AuthHandlers) renderError(c *gin.Context, err error) {
	if rle, ok := service.IsRateLimited(err); ok {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":             "rate limit exceeded",
			"retryAfterSeconds": rle.RetryAfter(time.Now()),
		})
		return
	}

	switch {
	case errors.Is(err, core.ErrInvalidAddress), errors.Is(err, core.ErrInvalidDomain):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrChallengeNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": core.ErrChallengeNotFound.Error()})
	case errors.Is(err, core.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": core.ErrInvalidSignature.Error()})
	default:
		h.log.Error("unexpected error handling auth request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
