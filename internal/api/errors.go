package api

import (
	"errors"
	"net/http"
	"strconv"

	"go-yamdb/internal/apperr"
	"go-yamdb/internal/logging"

	"github.com/gin-gonic/gin"
)

// writeError renders err as {"error": {"message", "fields"}}. Internal errors
// are logged and answered with a generic message.
func writeError(c *gin.Context, log logging.Logger, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Kind != apperr.KindInternal {
		if ae.Kind == apperr.KindDelivery {
			log.Error(c.Request.Context(), "delivery failed", "path", c.FullPath(), "error", err)
		}
		body := gin.H{"message": ae.Message}
		if len(ae.Fields) > 0 {
			body["fields"] = ae.Fields
		}
		c.JSON(ae.Kind.HTTPStatus(), gin.H{"error": body})
		return
	}
	log.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Internal server error"}})
}

// bindJSON decodes the body or answers 400.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
		return false
	}
	return true
}

// pathID parses a numeric path parameter. A malformed id cannot name an
// existing row, so it is answered like a missing one.
func pathID(c *gin.Context, name, what string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": what + " not found"}})
		return 0, false
	}
	return uint(v), true
}
