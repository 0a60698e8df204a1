package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vigilance-service/internal/pkg/response"
)

// RecoveryMiddleware turns a handler panic into a 500 envelope and logs the
// route and caller that triggered it.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			fields := []zap.Field{
				zap.Any("panic", rec),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("route", c.FullPath()),
				zap.Stack("stack"),
			}
			if userID, ok := GetUserID(c); ok {
				fields = append(fields, zap.Int64("user_id", userID))
			}
			if p, ok := GetPrincipal(c); ok && p.JTI != "" {
				fields = append(fields, zap.String("session_id", p.JTI))
			}
			logger.Error("panic recovered", fields...)

			response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		}()
		c.Next()
	}
}
