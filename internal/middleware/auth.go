package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ridebook/internal/auth"
)

const operatorKeyHeader = "X-Operator-Key"

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Authenticate verifies the bearer token and stores the caller's identity in
// the request context.
func Authenticate(verifier auth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{
				Error: "authorization header with bearer token required",
				Code:  "Unauthorized",
			})
			return
		}

		id, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrProviderUnavailable) {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, errorBody{
					Error: "identity provider unavailable",
					Code:  "Unavailable",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{
				Error: "invalid token",
				Code:  "Unauthorized",
			})
			return
		}

		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// OperatorKey admits requests whose X-Operator-Key header matches key. An
// empty key rejects every request.
func OperatorKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(operatorKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{
				Error: "valid operator key required",
				Code:  "Unauthorized",
			})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
