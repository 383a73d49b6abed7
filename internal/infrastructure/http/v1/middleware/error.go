package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"brewops/internal/core/apperror"
	"brewops/pkg/logger"
)

// ErrorHandler turns the last error registered on the gin context into a JSON response.
// Causes of infrastructure errors are logged and never sent to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		ctx := c.Request.Context()

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(ctx, "request error", "code", appErr.Code, "cause", appErr.Err)
			}
			c.JSON(appErr.HTTPStatus, ErrorBody(appErr))
			return
		}

		logger.Error(ctx, "unhandled error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    apperror.CodeInternal,
			"message": "Internal server error",
			"details": map[string]any{"request_id": c.GetString("request_id")},
		})
	}
}

// ErrorBody is the JSON shape of an AppError.
func ErrorBody(appErr *apperror.AppError) gin.H {
	return gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": appErr.Details,
	}
}
