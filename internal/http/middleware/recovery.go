package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prepnotify/internal/http/dto"
	"prepnotify/internal/http/resp"
)

// ZapRecovery turns a handler panic into a 500 error body. Streams that already
// sent their headers are aborted without a body.
func ZapRecovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		fields := []zap.Field{
			zap.Any("panic", recovered),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", GetRequestID(c)),
			zap.Stack("stack"),
		}
		if id := UserID(c); id > 0 {
			fields = append(fields, zap.Int64("user_id", id))
		}
		logger.Error("panic recovered", fields...)

		if c.Writer.Written() {
			c.Abort()
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
			Code:    resp.CodeInternalError,
			Message: "internal error",
		})
	})
}
