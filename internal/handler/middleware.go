package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/driftchat/realtime/internal/service"
	"github.com/driftchat/realtime/pkg/log"
	"github.com/driftchat/realtime/pkg/response"
)

// RequireAuth validates the bearer token on HTTP requests and stores the
// authenticated user id on the gin context under log.FieldUserID.
func RequireAuth(verifier service.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			response.Unauthorized(c, "missing or malformed authorization header")
			c.Abort()
			return
		}

		userID, err := verifier.Verify(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(log.FieldUserID, userID)
		c.Next()
	}
}

// currentUser reads the user id set by RequireAuth.
func currentUser(c *gin.Context) string {
	return c.GetString(log.FieldUserID)
}
