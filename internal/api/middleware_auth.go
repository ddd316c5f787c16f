package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"notifyhub/pkg/util"
)

// AuthVerifier validates a bearer token and returns the user it belongs to.
type AuthVerifier interface {
	Verify(token string) (string, error)
}

func AuthMiddleware(verifier AuthVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.ExtractToken(c.Request)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			c.Abort()
			return
		}

		userID, err := verifier.Verify(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
