package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"telecasino-dice/internal/middleware"
	"telecasino-dice/internal/services"
)

var errNoSession = errors.New("no session in token")

type SessionHandler struct {
	jwtService *services.JWTService
}

func NewSessionHandler(jwtService *services.JWTService) *SessionHandler {
	return &SessionHandler{jwtService: jwtService}
}

func (h *SessionHandler) GetCurrentSession(c *gin.Context) {
	sessionID, ok := middleware.SessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session not found"})
		return
	}

	session := gin.H{"session_id": sessionID}
	if expiry, ok := middleware.TokenExpiry(c); ok {
		session["expires_at"] = expiry
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// Refresh issues a fresh token for the caller's session.
func (h *SessionHandler) Refresh(c *gin.Context) {
	sessionID, ok := middleware.SessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Session not found",
			"details": errNoSession.Error(),
		})
		return
	}

	token, err := h.jwtService.GenerateToken(sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to issue token",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
	})
}
