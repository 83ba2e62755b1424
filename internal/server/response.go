package server

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/quotevox/quotevox-backend/internal/common"
)

// respondOK wraps a stage result in the standard success envelope.
func respondOK(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// respondError maps the error taxonomy onto HTTP and emits the failure
// envelope. AppError messages are client-safe; anything else is masked.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := common.HTTPStatus(err)
	code := common.ErrorCode(err)

	message := "internal error"
	var ae *common.AppError
	if errors.As(err, &ae) {
		message = ae.Message
	}

	if status >= 500 {
		logger.Error("request failed", "path", c.FullPath(), "code", code, "error", err)
	} else {
		logger.Warn("request rejected", "path", c.FullPath(), "code", code, "error", err)
	}

	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"code":    code,
		"error":   message,
	})
}
