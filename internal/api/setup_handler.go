package api

import (
	"net/http"

	"go-yamdb/internal/account"

	"github.com/gin-gonic/gin"
)

// POST /setup  [only while no account exists]
func SetupHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req account.SignupInput
		if !bindJSON(c, &req) {
			return
		}
		u, err := d.Accounts.Bootstrap(c.Request.Context(), req)
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"username":       u.Username,
			"email":          u.Email,
			"role":           u.Role,
			"setup_complete": true,
		})
	}
}

// GET /setup
func SetupStatusHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		need, err := d.Accounts.NeedsSetup(c.Request.Context())
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"need_setup": need})
	}
}
