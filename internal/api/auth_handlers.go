package api

import (
	"net/http"

	"go-yamdb/internal/account"

	"github.com/gin-gonic/gin"
)

type TokenRequest struct {
	Username         string `json:"username"`
	ConfirmationCode string `json:"confirmation_code"`
	// Code is accepted as a shorter alias of confirmation_code.
	Code string `json:"code"`
}

// POST /auth/signup
func SignupHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req account.SignupInput
		if !bindJSON(c, &req) {
			return
		}
		u, err := d.Accounts.IssueCode(c.Request.Context(), req)
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": u.Username, "email": u.Email})
	}
}

// POST /auth/token
func TokenHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TokenRequest
		if !bindJSON(c, &req) {
			return
		}
		code := req.ConfirmationCode
		if code == "" {
			code = req.Code
		}
		token, err := d.Accounts.ExchangeCode(c.Request.Context(), account.TokenInput{
			Username:         req.Username,
			ConfirmationCode: code,
		})
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"access": token})
	}
}
