package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/payrail/payout-gateway/internal/interfaces/http/dto"
)

// APIKeyHeader is the header carrying the caller's API key
const APIKeyHeader = "X-API-Key"

// APIKeyAuth returns a middleware that authenticates requests by API key.
// Comparison is constant-time over every configured key so response timing
// does not reveal how close a guess came.
func APIKeyAuth(keys []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(APIKeyHeader)
		if provided == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				errorResponse(c, dto.ErrCodeUnauthorized, "API key required"))
			return
		}

		matched := false
		for _, key := range keys {
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) == 1 {
				matched = true
			}
		}
		if !matched {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				errorResponse(c, dto.ErrCodeUnauthorized, "Invalid API key"))
			return
		}

		c.Next()
	}
}
