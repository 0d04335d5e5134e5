// Package account owns user accounts: confirmation-code signup, the code for
// token exchange, and user administration.
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-yamdb/internal/access"
	"go-yamdb/internal/apperr"
	"go-yamdb/internal/config"
	"go-yamdb/internal/logging"
	"go-yamdb/internal/mail"
	"go-yamdb/internal/user"

	"gorm.io/gorm"
)

type Options struct {
	JWTSecret      string
	TokenTTL       time.Duration
	CodeTTL        time.Duration
	ResendCooldown time.Duration
	MailFrom       string
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		JWTSecret:      cfg.Server.JWTSecret,
		TokenTTL:       cfg.Auth.AccessTokenTTL.Duration,
		CodeTTL:        cfg.Auth.CodeTTL.Duration,
		ResendCooldown: cfg.Auth.ResendCooldown.Duration,
		MailFrom:       cfg.Mail.From,
	}
}

type Service struct {
	db       *gorm.DB
	mail     mail.Sender
	cooldown Cooldown
	log      logging.Logger
	opts     Options
	now      func() time.Time
}

// NewService wires the account service. cooldown may be nil, which disables
// resend throttling.
func NewService(db *gorm.DB, sender mail.Sender, cooldown Cooldown, log logging.Logger, opts Options) *Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = config.DefaultAccessTokenTTL
	}
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = config.DefaultCodeTTL
	}
	if opts.MailFrom == "" {
		opts.MailFrom = config.DefaultMailFrom
	}
	return &Service{db: db, mail: sender, cooldown: cooldown, log: log, opts: opts, now: time.Now}
}

// ResolveActor loads the current role of a token subject.
func (s *Service) ResolveActor(ctx context.Context, id uint) (access.Actor, error) {
	var u user.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return access.Anonymous, notFound(err, "user not found")
	}
	return access.ActorFromUser(&u), nil
}

func (s *Service) findByUsername(ctx context.Context, username string) (*user.User, error) {
	var u user.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err, "user not found")
	}
	return &u, nil
}

func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(message)
	}
	return fmt.Errorf("%s: %w", message, err)
}
