// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"retailops/internal/core/apperror"
	"retailops/pkg/logger"
)

// Gin context keys set by the middleware chain.
const (
	ctxKeyRequestID = "request_id"
	ctxKeyTraceID   = "trace_id"
	ctxKeyUserID    = "user_id"
)

// Recovery middleware recovers from panics and returns 500 error.
// Logs stack trace but never exposes internal details to client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", err,
					"stack", string(debug.Stack()),
				)

				// ErrorHandler sits below us in the chain and was unwound
				// by the panic, so the response is rendered here.
				_ = c.Error(apperror.NewInternal(fmt.Errorf("panic: %v", err)))
				if c.Writer.Written() {
					c.Abort()
					return
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    apperror.CodeInternal,
					"message": "Internal server error",
					"details": map[string]any{"request_id": c.GetString(ctxKeyRequestID)},
				})
			}
		}()
		c.Next()
	}
}
