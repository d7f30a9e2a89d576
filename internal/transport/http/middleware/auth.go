package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"accountd/internal/model"
	"accountd/internal/transport/http/response"
)

// ContextUserKey is where the gate stores the resolved user in the gin
// context for downstream handlers. ContextTokenKey holds the raw bearer
// token so logout can revoke it without re-parsing the header.
const (
	ContextUserKey  = "auth_user"
	ContextTokenKey = "auth_token"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// Auth is the request gate. Requests to public paths pass through
// unauthenticated; everything else must carry a resolvable bearer token.
// Authentication success is the only requirement; there are no roles.
func Auth(auth Authenticator, publicPaths []string) gin.HandlerFunc {
	public := make(map[string]struct{}, len(publicPaths))
	for _, path := range publicPaths {
		public[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := public[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Missing token")
			c.Abort()
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "authentication failed")
			c.Abort()
			return
		}
		if user == nil {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextTokenKey, token)
		c.Next()
	}
}

// UserFromContext returns the user the gate attached to the request.
func UserFromContext(c *gin.Context) (*model.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*model.User)
	return user, ok
}
