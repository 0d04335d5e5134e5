package account

import (
	"context"
	"fmt"
	"strings"

	"go-yamdb/internal/apperr"
	"go-yamdb/internal/user"

	"gorm.io/gorm"
)

// Bootstrap creates the first account as a superuser. It is refused once any
// account exists. The new admin then signs up with the same pair to get a code.
func (s *Service) Bootstrap(ctx context.Context, in SignupInput) (*user.User, error) {
	username := strings.TrimSpace(in.Username)
	fields := map[string]string{}
	if err := user.ValidateUsername(username); err != nil {
		fields["username"] = err.Error()
	}
	email, err := user.NormalizeEmail(in.Email)
	if err != nil {
		fields["email"] = err.Error()
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("invalid input", fields)
	}

	u := user.User{
		Username:         username,
		Email:            email,
		Role:             user.RoleAdmin,
		IsSuperuser:      true,
		ConfirmationCode: user.CodeSentinel,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUsers(tx); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&user.User{}).Count(&count).Error; err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		if count != 0 {
			return apperr.Forbidden("setup not allowed; users already exist")
		}
		if err := tx.Create(&u).Error; err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "initial admin created", "username", u.Username)
	return &u, nil
}

// lockUsers keeps concurrent bootstraps from both seeing an empty table. The
// lock blocks inserts until the transaction ends but still allows reads.
// SQLite admits a single writer, so the losing insert fails there instead.
func lockUsers(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	if err := tx.Exec("LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
		return fmt.Errorf("lock users: %w", err)
	}
	return nil
}

// NeedsSetup reports whether no account exists yet.
func (s *Service) NeedsSetup(ctx context.Context) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&user.User{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return count == 0, nil
}
