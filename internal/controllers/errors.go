package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"users-be/internal/service"
)

var statusByKind = map[service.ErrorKind]int{
	service.KindMissingArgument: http.StatusBadRequest,
	service.KindInvalidArgument: http.StatusBadRequest,
	service.KindConflict:        http.StatusConflict,
	service.KindNotFound:        http.StatusNotFound,
	service.KindUnauthorized:    http.StatusUnauthorized,
	service.KindAccess:          http.StatusInternalServerError,
}

// respondError maps a service error to its HTTP status. Causes of 5xx responses are logged, never returned.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status, ok := statusByKind[service.KindOf(err)]
	if !ok {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}

	message := err.Error()
	var se *service.Error
	if errors.As(err, &se) {
		message = se.Message
	}
	c.JSON(status, gin.H{"error": message})
}
