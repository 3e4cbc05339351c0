package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/referrals/internal/shared/constants"
	"github.com/orris-inc/referrals/internal/shared/logger"
	"github.com/orris-inc/referrals/internal/shared/utils"
)

// AuthMiddleware accepts requests carrying one of the configured bearer tokens.
type AuthMiddleware struct {
	tokens [][]byte
	logger logger.Interface
}

func NewAuthMiddleware(tokens []string, logger logger.Interface) *AuthMiddleware {
	m := &AuthMiddleware{logger: logger}
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			m.tokens = append(m.tokens, []byte(t))
		}
	}
	if len(m.tokens) == 0 {
		logger.Warnw("no api tokens configured, every authenticated route will reject requests")
	}
	return m
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(constants.HeaderAuthorization)
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing authorization token")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid authorization header format")
			c.Abort()
			return
		}

		if !m.valid(parts[1]) {
			m.logger.Warnw("rejected api token",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP(),
			)
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyToken, true)
		c.Next()
	}
}

func (m *AuthMiddleware) valid(token string) bool {
	candidate := []byte(token)
	match := 0
	for _, t := range m.tokens {
		match |= subtle.ConstantTimeCompare(candidate, t)
	}
	return match == 1
}
