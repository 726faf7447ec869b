package handlers

import (
	"errors"
	"net/http"

	"auto-cart/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultAccountID = "default"

// accountID identifies the grocery account a request acts on. Deployments
// fronted by an auth proxy pass the user id in X-Account-ID; a bare
// single-user install falls back to one shared account.
func accountID(c *gin.Context) string {
	if id := c.GetHeader("X-Account-ID"); id != "" {
		return id
	}
	return defaultAccountID
}

// respondError maps domain errors onto the JSON error envelope and status.
func respondError(c *gin.Context, err error) {
	var customErr *common.CustomError
	if errors.As(err, &customErr) {
		body := gin.H{
			"error": customErr.Message,
			"code":  customErr.Code,
		}
		if detail := err.Error(); detail != customErr.Message {
			body["details"] = detail
		}
		c.JSON(customErr.Status, body)
		return
	}

	if common.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	common.LogError("unhandled error",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Internal server error",
		"code":  common.ErrCodeInternalError,
	})
}
