package server

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/customerdesk/internal/observability/logger"
)

const HeaderAPIKey = "X-API-Key"

// APIKeyRequired guards destructive routes with the shared API key. It runs
// before the handler parses any path parameter, so a rejected request never
// touches the repository.
func (s *Server) APIKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := strings.TrimSpace(c.GetHeader(HeaderAPIKey))
		if provided == "" {
			c.Set(logger.APIKeyResultKey, "missing")
			AbortWithError(c, ErrAPIKeyMissing)
			return
		}

		expected := s.security.APIKey()
		if expected == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			c.Set(logger.APIKeyResultKey, "invalid")
			AbortWithError(c, ErrInvalidAPIKey)
			return
		}

		c.Set(logger.APIKeyResultKey, "accepted")
		c.Next()
	}
}
