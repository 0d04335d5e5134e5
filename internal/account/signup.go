package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-yamdb/internal/apperr"
	"go-yamdb/internal/mail"
	"go-yamdb/internal/user"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

const codeSubject = "YaMDb confirmation code"

// IssueCode gets or creates the account for the (username, email) pair, stores a
// fresh code hash and mails the plaintext code. An identity bound to a different
// partner is rejected before anything is sent.
func (s *Service) IssueCode(ctx context.Context, in SignupInput) (*user.User, error) {
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

	if err := s.checkIdentity(ctx, username, email); err != nil {
		return nil, err
	}

	if s.cooldown != nil && s.opts.ResendCooldown > 0 {
		ok, err := s.cooldown.Acquire(ctx, email, s.opts.ResendCooldown)
		switch {
		case err != nil:
			s.log.Warn(ctx, "signup cooldown unavailable", "error", err)
		case !ok:
			return nil, apperr.Throttled("a code was sent recently, try again later")
		}
	}

	u, err := s.getOrCreate(ctx, username, email)
	if err != nil {
		s.releaseCooldown(ctx, email)
		return nil, err
	}

	code, err := user.GenerateCode()
	if err != nil {
		s.releaseCooldown(ctx, email)
		return nil, apperr.Internal("generate code", err)
	}
	hash, err := user.HashCode(code)
	if err != nil {
		s.releaseCooldown(ctx, email)
		return nil, apperr.Internal("hash code", err)
	}
	now := s.now()
	expires := now.Add(s.opts.CodeTTL)
	err = s.db.WithContext(ctx).Model(&user.User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"confirmation_code": hash,
		"code_expires_at":   expires,
		"code_sent_at":      now,
	}).Error
	if err != nil {
		s.releaseCooldown(ctx, email)
		return nil, fmt.Errorf("store code: %w", err)
	}

	msg := mail.Message{
		From:    s.opts.MailFrom,
		To:      []string{email},
		Subject: codeSubject,
		Body:    fmt.Sprintf("Hello %s,\n\nyour confirmation code is %s\n", username, code),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.Error(ctx, "confirmation code delivery failed", "username", username, "error", err)
		reset := s.db.WithContext(ctx).Model(&user.User{}).
			Where("id = ? AND confirmation_code = ?", u.ID, hash).
			Updates(map[string]any{"confirmation_code": user.CodeSentinel, "code_expires_at": nil})
		if reset.Error != nil {
			s.log.Error(ctx, "failed to reset undelivered code", "username", username, "error", reset.Error)
		}
		s.releaseCooldown(ctx, email)
		return nil, apperr.Delivery("could not send the confirmation code", err)
	}

	u.CodeExpiresAt = &expires
	u.CodeSentAt = &now
	s.log.Info(ctx, "confirmation code issued", "username", username)
	return u, nil
}

// checkIdentity rejects a pair whose email or username already belongs to
// someone else.
func (s *Service) checkIdentity(ctx context.Context, username, email string) error {
	var existing []user.User
	err := s.db.WithContext(ctx).
		Where("email = ? OR username = ?", email, username).
		Find(&existing).Error
	if err != nil {
		return fmt.Errorf("lookup identity: %w", err)
	}
	for _, u := range existing {
		if u.Email == email && u.Username != username {
			return apperr.Conflict("email", "email already registered under a different username")
		}
		if u.Username == username && u.Email != email {
			return apperr.Conflict("username", "username already registered with a different email")
		}
	}
	return nil
}

// getOrCreate inserts the account unless a row with either unique key exists,
// then re-reads it. A concurrent signup that claimed one of the keys for a
// different partner surfaces as a Conflict.
func (s *Service) getOrCreate(ctx context.Context, username, email string) (*user.User, error) {
	fresh := user.User{
		Username:         username,
		Email:            email,
		Role:             user.RoleUser,
		ConfirmationCode: user.CodeSentinel,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	var u user.User
	err := s.db.WithContext(ctx).Where("username = ? AND email = ?", username, email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, s.checkIdentityOrConflict(ctx, username, email)
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return &u, nil
}

func (s *Service) checkIdentityOrConflict(ctx context.Context, username, email string) error {
	if err := s.checkIdentity(ctx, username, email); err != nil {
		return err
	}
	return apperr.Conflict("username", "username or email already taken")
}

func (s *Service) releaseCooldown(ctx context.Context, email string) {
	if s.cooldown == nil {
		return
	}
	if err := s.cooldown.Release(ctx, email); err != nil {
		s.log.Warn(ctx, "signup cooldown release failed", "error", err)
	}
}
