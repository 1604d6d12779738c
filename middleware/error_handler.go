package middleware

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/devfolio/portfolio-backend/errors"
	"github.com/devfolio/portfolio-backend/logger"
	"github.com/devfolio/portfolio-backend/types"
	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error attached with c.Error as a JSON
// types.ErrorResponse. Handlers must not write a body after attaching one.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		last := c.Errors.Last()
		err := last.Err

		var appError *errors.AppError
		if stderrors.As(err, &appError) {
			statusCode := appError.GetHTTPStatus()
			logger.LogHTTPError(c, err, statusCode, fmt.Sprintf("%s error", appError.Type))

			if appError.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(appError.RetryAfter))
			}

			response := types.ErrorResponse{
				Type:    string(appError.Type),
				Message: appError.Message,
				Code:    strconv.Itoa(statusCode),
			}
			// Details leak internals; only validation problems are safe to echo.
			if appError.Detail != "" && (gin.IsDebugging() || appError.Type == errors.ValidationError) {
				response.Details = appError.Detail
			}

			c.AbortWithStatusJSON(statusCode, response)
			return
		}

		if last.Type == gin.ErrorTypeBind {
			logger.LogHTTPError(c, err, http.StatusBadRequest, "Request binding error")

			response := types.ErrorResponse{
				Type:    string(errors.ValidationError),
				Message: "Invalid request body",
				Code:    strconv.Itoa(http.StatusBadRequest),
			}
			if gin.IsDebugging() {
				response.Details = err.Error()
			}

			c.AbortWithStatusJSON(http.StatusBadRequest, response)
			return
		}

		fallback := errors.InternalServerError("Internal Server Error")
		statusCode := fallback.GetHTTPStatus()
		logger.LogHTTPError(c, err, statusCode, "Unexpected server error")

		response := types.ErrorResponse{
			Type:    string(fallback.Type),
			Message: fallback.Message,
			Code:    strconv.Itoa(statusCode),
		}
		if gin.IsDebugging() {
			response.Details = err.Error()
		}

		c.AbortWithStatusJSON(statusCode, response)
	}
}
