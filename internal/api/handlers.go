package api

import (
	"net/http"

	"go-yamdb/internal/config"

	"github.com/gin-gonic/gin"
)

// GET /health
func healthHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d.DB != nil {
			sqlDB, err := d.DB.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request.Context())
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	}
}

// GET /config
func configHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only return non-sensitive config fields
		c.JSON(http.StatusOK, gin.H{
			"server": gin.H{
				"subpath": cfg.Server.Subpath,
			},
			"auth": gin.H{
				"accessTokenTtl": cfg.Auth.AccessTokenTTL,
				"codeTtl":        cfg.Auth.CodeTTL,
				"resendCooldown": cfg.Auth.ResendCooldown,
			},
			"mail": gin.H{
				"backend": cfg.Mail.Backend,
			},
		})
	}
}
