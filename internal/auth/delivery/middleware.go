package delivery

import (
	"net/http"
	"strings"

	"push-relay/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

// CallerKey is the gin context key holding the authenticated *domain.Caller
const CallerKey = "caller"

func AuthMiddleware(authUsecase usecase.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid authorization header format"})
			return
		}

		caller, err := authUsecase.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid or expired token"})
			return
		}

		c.Set(CallerKey, caller)
		c.Next()
	}
}
