// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"brewops/internal/core/apperror"
	"brewops/pkg/logger"
)

// Recovery recovers from panics and answers 500 without exposing internals.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", rec,
					"stack", string(debug.Stack()),
				)

				appErr := apperror.NewInternal(fmt.Errorf("panic: %v", rec)).
					WithDetail("request_id", c.GetString("request_id"))
				c.AbortWithStatusJSON(appErr.HTTPStatus, ErrorBody(appErr))
			}
		}()
		c.Next()
	}
}
