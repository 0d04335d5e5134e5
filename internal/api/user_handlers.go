package api

import (
	"net/http"

	"go-yamdb/internal/account"
	"go-yamdb/internal/auth"

	"github.com/gin-gonic/gin"
)

// GET /users  [admin only]
func ListUsersHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := d.Accounts.ListUsers(c.Request.Context(), auth.ActorFrom(c))
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

// POST /users  [admin only]
func CreateUserHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req account.UserInput
		if !bindJSON(c, &req) {
			return
		}
		u, err := d.Accounts.CreateUser(c.Request.Context(), auth.ActorFrom(c), req)
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusCreated, u)
	}
}

// GET /users/:username  [admin only]
func GetUserHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := d.Accounts.GetUser(c.Request.Context(), auth.ActorFrom(c), c.Param("username"))
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// PATCH /users/:username  [admin only]
func UpdateUserHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req account.UserPatch
		if !bindJSON(c, &req) {
			return
		}
		u, err := d.Accounts.UpdateUser(c.Request.Context(), auth.ActorFrom(c), c.Param("username"), req)
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// DELETE /users/:username  [admin only]
func DeleteUserHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := d.Accounts.DeleteUser(c.Request.Context(), auth.ActorFrom(c), c.Param("username")); err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// GET /users/me
func GetMeHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := d.Accounts.Me(c.Request.Context(), auth.ActorFrom(c))
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// PATCH /users/me
func UpdateMeHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req account.UserPatch
		if !bindJSON(c, &req) {
			return
		}
		u, err := d.Accounts.UpdateMe(c.Request.Context(), auth.ActorFrom(c), req)
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}
