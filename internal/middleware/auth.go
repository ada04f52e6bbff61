package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"telecasino-dice/internal/services"
)

// Context keys set by AuthMiddleware.
const (
	ContextSessionID   = "session_id"
	ContextTokenExpiry = "token_expires_at"
)

var (
	errMissingToken  = errors.New("authorization header required")
	errBadAuthScheme = errors.New("invalid authorization format")
)

// AuthMiddleware resolves the caller's game session from a signed token and
// stores it for SessionID. Requests without a valid token stop here.
func AuthMiddleware(jwtService *services.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := requestToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		setSession(c, claims)
		c.Next()
	}
}

// requestToken reads a bearer token, falling back to the token query
// parameter for websocket clients that cannot set headers.
func requestToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" {
			return token, nil
		}
		return "", errMissingToken
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", errBadAuthScheme
	}
	return token, nil
}

func setSession(c *gin.Context, claims *services.Claims) {
	c.Set(ContextSessionID, claims.SessionID)
	if claims.ExpiresAt != nil {
		c.Set(ContextTokenExpiry, claims.ExpiresAt.Time)
	}
}

// SessionID returns the game session the request was authenticated for.
func SessionID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ContextSessionID)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// TokenExpiry returns when the request's token expires.
func TokenExpiry(c *gin.Context) (time.Time, bool) {
	v, exists := c.Get(ContextTokenExpiry)
	if !exists {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}
