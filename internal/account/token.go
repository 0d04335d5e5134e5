package account

import (
	"context"
	"fmt"
	"strings"

	"go-yamdb/internal/apperr"
	"go-yamdb/internal/auth"
	"go-yamdb/internal/user"

	"gorm.io/gorm"
)

type TokenInput struct {
	Username         string `json:"username"`
	ConfirmationCode string `json:"confirmation_code"`
}

var errInvalidCode = apperr.Field("confirmation_code", "invalid confirmation code")

// ExchangeCode trades a valid confirmation code for an access token. The code is
// consumed atomically, so two concurrent submissions of the same code cannot
// both succeed. A wrong code leaves the stored one usable until it expires.
func (s *Service) ExchangeCode(ctx context.Context, in TokenInput) (string, error) {
	username := strings.TrimSpace(in.Username)
	code := strings.TrimSpace(in.ConfirmationCode)
	fields := map[string]string{}
	if username == "" {
		fields["username"] = "username is required"
	}
	if code == "" {
		fields["confirmation_code"] = "confirmation code is required"
	}
	if len(fields) > 0 {
		return "", apperr.Validation("invalid input", fields)
	}

	u, err := s.findByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if !u.HasPendingCode() {
		return "", errInvalidCode
	}
	if u.CodeExpiresAt != nil && !s.now().Before(*u.CodeExpiresAt) {
		if _, err := s.consumeCode(ctx, u); err != nil {
			return "", err
		}
		s.log.Info(ctx, "expired confirmation code invalidated", "username", username)
		return "", apperr.Field("confirmation_code", "confirmation code has expired")
	}

	ok, err := user.CheckCode(u.ConfirmationCode, code)
	if err != nil {
		return "", apperr.Internal("check code", err)
	}
	if !ok {
		s.log.Warn(ctx, "confirmation code mismatch", "username", username)
		return "", errInvalidCode
	}

	consumed, err := s.consumeCode(ctx, u)
	if err != nil {
		return "", err
	}
	if !consumed {
		return "", errInvalidCode
	}

	token, err := auth.GenerateJWT(s.opts.JWTSecret, u.ID, u.Username, string(u.Role), s.opts.TokenTTL)
	if err != nil {
		return "", apperr.Internal("sign token", err)
	}
	s.log.Info(ctx, "access token issued", "username", username)
	return token, nil
}

// consumeCode resets the code to the sentinel only if it still holds the hash
// read earlier. It reports whether this call won.
func (s *Service) consumeCode(ctx context.Context, u *user.User) (bool, error) {
	var won bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&user.User{}).
			Where("id = ? AND confirmation_code = ?", u.ID, u.ConfirmationCode).
			Updates(map[string]any{"confirmation_code": user.CodeSentinel, "code_expires_at": nil})
		if res.Error != nil {
			return fmt.Errorf("consume code: %w", res.Error)
		}
		won = res.RowsAffected == 1
		return nil
	})
	return won, err
}
