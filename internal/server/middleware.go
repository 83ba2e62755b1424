package server

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/quotevox/quotevox-backend/internal/common"
	"github.com/quotevox/quotevox-backend/internal/ratelimit"
)

// Auth verifies the bearer token and binds the caller's user id onto the
// request context. The subject claim must be a UUID.
func Auth(secret string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondError(c, logger, common.NewAppError(common.CodeUnauthorized, "missing bearer token", common.ErrUnauthorized))
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		var claims jwt.RegisteredClaims
		token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			respondError(c, logger, common.NewAppError(common.CodeUnauthorized, "invalid token", err))
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			respondError(c, logger, common.NewAppError(common.CodeUnauthorized, "token subject is not a user id", err))
			return
		}

		c.Request = c.Request.WithContext(common.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

// RateLimit gates a provider-calling route on the per-user budget.
func RateLimit(limiter *ratelimit.Limiter, scope string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := common.UserIDFromContext(c.Request.Context())
		if userID == uuid.Nil {
			c.Next()
			return
		}
		if err := limiter.Allow(c.Request.Context(), scope, userID); err != nil {
			respondError(c, logger, err)
			return
		}
		c.Next()
	}
}

// RequestLog emits one structured line per request.
func RequestLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http.request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}
