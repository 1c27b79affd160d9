package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	pkgAuth "github.com/polkiloo/pointsledger/internal/pkg/auth"
)

// OperatorRequired rejects requests without a valid operator bearer token.
// It passes everything through when the verifier is disabled.
func OperatorRequired(verifier pkgAuth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !verifier.Enabled() {
			c.Next()
			return
		}

		token := extractToken(c)
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if err := verifier.Verify(token); err != nil {
			if errors.Is(err, domainErrors.ErrInvalidCredentials) {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
