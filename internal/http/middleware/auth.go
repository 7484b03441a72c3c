package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tayyabfareed009/newswatch/internal/gateway"
	"github.com/tayyabfareed009/newswatch/internal/service"
)

const userIDKey = "userID"

// TokenValidator resolves a bearer token to a user id.
type TokenValidator interface {
	Authenticate(token string) (int64, error)
}

var _ TokenValidator = (*service.AuthService)(nil)

// Auth validates the Authorization header and attaches the user id.
type Auth struct {
	Tokens TokenValidator
}

// ValidateJWT ensures the request has a valid bearer token.
func (m *Auth) ValidateJWT(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		abortUnauthorized(c, "Authorization header required.")
		return
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		abortUnauthorized(c, "Bearer token required.")
		return
	}
	userID, err := m.Tokens.Authenticate(strings.TrimSpace(parts[1]))
	if err != nil {
		abortUnauthorized(c, "Invalid or expired token.")
		return
	}
	c.Set(userIDKey, userID)
	c.Next()
}

// GetUserID returns the authenticated user id.
func GetUserID(c *gin.Context) (int64, bool) {
	value, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := value.(int64)
	return id, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gateway.Envelope{Error: service.CodeUnauthorized, Message: message})
}
