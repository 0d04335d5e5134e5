package api

import (
	"time"

	"go-yamdb/internal/access"
	"go-yamdb/internal/auth"
	"go-yamdb/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id (a client-supplied X-Request-ID is
// kept) and logs one line when it completes.
func RequestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set("requestId", id)
		c.Header(requestIDHeader, id)
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		switch {
		case status >= 500:
			log.Error(c.Request.Context(), "request", args...)
		case status >= 400:
			log.Warn(c.Request.Context(), "request", args...)
		default:
			log.Info(c.Request.Context(), "request", args...)
		}
	}
}

// requireAccess rejects a request whose actor could not perform act on any
// object of kind, before the handler reads the body.
func requireAccess(d *Deps, kind access.Kind, act access.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := access.Precheck(auth.ActorFrom(c), act, kind); err != nil {
			writeError(c, d.Log, err)
			c.Abort()
			return
		}
		c.Next()
	}
}
