package handlers

import (
	apperrors "github.com/devfolio/portfolio-backend/errors"
	"github.com/gin-gonic/gin"
)

// bindJSONOrError binds the request body and attaches a validation error on
// failure. Callers return immediately when it reports false.
func bindJSONOrError(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		_ = c.Error(apperrors.ValidationFailed("Invalid request body", err.Error()))
		return false
	}
	return true
}
