package handler

import (
	"errors"
	"net/http"

	"sso-connect/internal/auth/credentials"
	"sso-connect/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login signs in accounts that were given a password on the connect page.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	userID, err := h.Credentials.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, credentials.ErrInvalidCredentials) {
			logger.From(c.Request.Context()).Error("password sign in failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		h.Metrics.ObserveSignIn("password", "error")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if err := h.startSession(c, userID, "password"); err != nil {
		logger.From(c.Request.Context()).Error("session create failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session error"})
		return
	}

	h.Metrics.ObserveSignIn("password", "session")
	c.JSON(http.StatusOK, gin.H{"status": "logged_in"})
}
