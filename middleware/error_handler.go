package middleware

import (
	"errors"
	"net/http"

	"Campfire/logging"
	"Campfire/utils"

	"github.com/gin-gonic/gin"
)

// ErrorHandlerMiddleware renders the last error a handler attached with
// c.Error as the standard response envelope
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var customErr *utils.CustomError
		if errors.As(err, &customErr) {
			utils.ErrorResponse(c, customErr.StatusCode, customErr.Message)
			return
		}

		// Anything else is unexpected
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled error")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal Server Error")
	}
}
