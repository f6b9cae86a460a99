package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"catlog/internal/service"
)

// VerificationHandler holds dependencies for professional verification
// endpoints.
type VerificationHandler struct {
	logger *zap.Logger
	verif  *service.VerificationService
}

// NewVerificationHandler creates a VerificationHandler with its dependencies.
func NewVerificationHandler(logger *zap.Logger, verif *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{
		logger: logger,
		verif:  verif,
	}
}

// ConfirmCode handles POST /verify-email.
func (h *VerificationHandler) ConfirmCode(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid confirm code request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.verif.ConfirmCode(c.Request.Context(), claims.UserID, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrNoCredential):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		case errors.Is(err, service.ErrInvalidCode),
			errors.Is(err, service.ErrCodeExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		default:
			h.logger.Error("confirm code failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not confirm code"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "verified"})
}

// RequestCode handles POST /verify-email/request. It issues a fresh code
// for the authenticated user's credential, replacing any prior one.
func (h *VerificationHandler) RequestCode(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	if err := h.verif.IssueCode(c.Request.Context(), claims.UserID); err != nil {
		switch {
		case errors.Is(err, service.ErrNoCredential),
			errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		case errors.Is(err, service.ErrIssueCooldown):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		default:
			h.logger.Error("issue code failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue code"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "code_sent"})
}

// Status handles GET /verify-email/status.
func (h *VerificationHandler) Status(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	verified, err := h.verif.IsVerified(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("verification status failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"verified": verified})
}
