package middleware

import (
	"context"
	"net/http"
	"strings"

	"quddle-backend/pkg/identity"
	"quddle-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type TokenVerifier interface {
	VerifyToken(ctx context.Context, accessToken string) (*identity.Identity, error)
}

// AuthMiddleware requires "Authorization: Bearer <token>" and stores the
// caller's id and email as user_id and user_email.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			response.Abort(c, http.StatusUnauthorized, "Access token required")
			return
		}

		ident, err := verifier.VerifyToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		c.Set("user_id", ident.ID)
		c.Set("user_email", ident.Email)
		c.Next()
	}
}
