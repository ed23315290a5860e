package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/Aashish23092/travel-document-verification/dto"
	"github.com/gin-gonic/gin"
)

// Recovery middleware recovers from panics and logs the error
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestID := GetRequestID(c)

				slog.Error("panic recovered",
					"error", err,
					"request_id", requestID,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
					Error:   "internal_error",
					Message: "Internal server error (request " + requestID + ")",
					Code:    http.StatusInternalServerError,
				})
			}
		}()

		c.Next()
	}
}
