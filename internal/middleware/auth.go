package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"prizetalk/internal/pkg"
	"prizetalk/internal/repository/redis"
)

const ContextUserIDKey = "user_id"

var (
	errNoToken       = errors.New("missing authorization header")
	errBadFormat     = errors.New("invalid authorization format")
	errBadToken      = errors.New("invalid or expired token")
	errSessionClosed = errors.New("session ended or replaced by a newer login")
)

// Authenticator verifies bearer tokens. With Sessions set, a token is only
// accepted while it is the user's latest login; without it tokens are
// checked for signature and expiry only.
type Authenticator struct {
	Tokens   *pkg.TokenIssuer
	Sessions *redis.SessionRepository
}

// AuthMiddleware rejects requests without a valid token.
func (a *Authenticator) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, status, err := a.authenticate(c)
		if err != nil {
			c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
			return
		}
		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// OptionalAuth sets the user id when a valid token is present and lets
// anonymous requests through. A malformed or stale token is still rejected.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		userID, status, err := a.authenticate(c)
		if err != nil {
			c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
			return
		}
		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

func (a *Authenticator) authenticate(c *gin.Context) (uint64, int, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return 0, http.StatusUnauthorized, errNoToken
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, http.StatusUnauthorized, errBadFormat
	}

	claims, err := a.Tokens.Parse(parts[1])
	if err != nil {
		return 0, http.StatusUnauthorized, errBadToken
	}
	if a.Sessions == nil {
		return claims.UserID, 0, nil
	}

	ctx := c.Request.Context()
	current, err := a.Sessions.Get(ctx, claims.UserID)
	if errors.Is(err, redis.ErrSessionNotFound) {
		return 0, http.StatusUnauthorized, errSessionClosed
	}
	if err != nil {
		return 0, http.StatusServiceUnavailable, errors.New("session store unavailable")
	}
	if current != claims.ID {
		return 0, http.StatusUnauthorized, errSessionClosed
	}
	// slide the session window on activity
	if err := a.Sessions.Extend(ctx, claims.UserID); err != nil {
		return 0, http.StatusServiceUnavailable, errors.New("session store unavailable")
	}
	return claims.UserID, 0, nil
}
