package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-yamdb/internal/access"
	"go-yamdb/internal/apperr"
	"go-yamdb/internal/user"

	"gorm.io/gorm"
)

type UserInput struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Bio       string    `json:"bio"`
	Role      user.Role `json:"role"`
}

type UserPatch struct {
	Username  *string    `json:"username"`
	Email     *string    `json:"email"`
	FirstName *string    `json:"first_name"`
	LastName  *string    `json:"last_name"`
	Bio       *string    `json:"bio"`
	Role      *user.Role `json:"role"`
}

func (s *Service) ListUsers(ctx context.Context, actor access.Actor) ([]user.User, error) {
	if err := access.Check(actor, access.Read, access.Collection(access.Accounts)); err != nil {
		return nil, err
	}
	var out []user.User
	if err := s.db.WithContext(ctx).Order("username").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// CreateUser is the admin path: no code is issued, the user signs up later with
// the same pair to receive one.
func (s *Service) CreateUser(ctx context.Context, actor access.Actor, in UserInput) (*user.User, error) {
	if err := access.Check(actor, access.Create, access.Collection(access.Accounts)); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = user.RoleUser
	}
	u := user.User{
		Username:         strings.TrimSpace(in.Username),
		Email:            in.Email,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		Bio:              in.Bio,
		Role:             role,
		ConfirmationCode: user.CodeSentinel,
	}
	fields := map[string]string{}
	if err := user.ValidateUsername(u.Username); err != nil {
		fields["username"] = err.Error()
	}
	email, err := user.NormalizeEmail(in.Email)
	if err != nil {
		fields["email"] = err.Error()
	}
	u.Email = email
	validateProfile(fields, u.FirstName, u.LastName)
	if !role.Valid() {
		fields["role"] = fmt.Sprintf("unknown role %q", role)
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("invalid input", fields)
	}
	if err := s.ensureUnique(ctx, 0, u.Username, u.Email); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("username", "username or email already taken")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info(ctx, "user created", "username", u.Username, "role", u.Role, "actor", actor.Username)
	return &u, nil
}

func (s *Service) GetUser(ctx context.Context, actor access.Actor, username string) (*user.User, error) {
	if err := access.Check(actor, access.Read, access.Object(access.Accounts, 0)); err != nil {
		return nil, err
	}
	return s.findByUsername(ctx, username)
}

func (s *Service) UpdateUser(ctx context.Context, actor access.Actor, username string, p UserPatch) (*user.User, error) {
	if err := access.Check(actor, access.Update, access.Object(access.Accounts, 0)); err != nil {
		return nil, err
	}
	u, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.applyPatch(ctx, u, p)
}

// DeleteUser removes the account with everything it authored.
func (s *Service) DeleteUser(ctx context.Context, actor access.Actor, username string) error {
	if err := access.Check(actor, access.Delete, access.Object(access.Accounts, 0)); err != nil {
		return err
	}
	u, err := s.findByUsername(ctx, username)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stmts := []string{
			"DELETE FROM comments WHERE author_id = ? OR review_id IN (SELECT id FROM reviews WHERE author_id = ?)",
			"DELETE FROM reviews WHERE author_id = ?",
		}
		if err := tx.Exec(stmts[0], u.ID, u.ID).Error; err != nil {
			return fmt.Errorf("delete user comments: %w", err)
		}
		if err := tx.Exec(stmts[1], u.ID).Error; err != nil {
			return fmt.Errorf("delete user reviews: %w", err)
		}
		if err := tx.Delete(&user.User{}, u.ID).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info(ctx, "user deleted", "username", u.Username, "actor", actor.Username)
	return nil
}

func (s *Service) Me(ctx context.Context, actor access.Actor) (*user.User, error) {
	if err := access.Check(actor, access.Read, access.Object(access.Profile, actor.ID)); err != nil {
		return nil, err
	}
	var u user.User
	if err := s.db.WithContext(ctx).First(&u, actor.ID).Error; err != nil {
		return nil, notFound(err, "user not found")
	}
	return &u, nil
}

// UpdateMe edits the actor's own profile. A role in the patch is dropped unless
// the actor is an admin.
func (s *Service) UpdateMe(ctx context.Context, actor access.Actor, p UserPatch) (*user.User, error) {
	if err := access.Check(actor, access.Update, access.Object(access.Profile, actor.ID)); err != nil {
		return nil, err
	}
	if !access.CanChangeRole(actor) {
		p.Role = nil
	}
	var u user.User
	if err := s.db.WithContext(ctx).First(&u, actor.ID).Error; err != nil {
		return nil, notFound(err, "user not found")
	}
	return s.applyPatch(ctx, &u, p)
}

func (s *Service) applyPatch(ctx context.Context, u *user.User, p UserPatch) (*user.User, error) {
	fields := map[string]string{}
	updates := map[string]any{}
	username, email := u.Username, u.Email
	if p.Username != nil {
		username = strings.TrimSpace(*p.Username)
		if err := user.ValidateUsername(username); err != nil {
			fields["username"] = err.Error()
		}
		updates["username"] = username
	}
	if p.Email != nil {
		normalized, err := user.NormalizeEmail(*p.Email)
		if err != nil {
			fields["email"] = err.Error()
		}
		email = normalized
		updates["email"] = normalized
	}
	first, last := u.FirstName, u.LastName
	if p.FirstName != nil {
		first = *p.FirstName
		updates["first_name"] = first
	}
	if p.LastName != nil {
		last = *p.LastName
		updates["last_name"] = last
	}
	validateProfile(fields, first, last)
	if p.Bio != nil {
		updates["bio"] = *p.Bio
	}
	if p.Role != nil {
		if !p.Role.Valid() {
			fields["role"] = fmt.Sprintf("unknown role %q", *p.Role)
		}
		updates["role"] = *p.Role
		// Superuser counts as admin, so leaving the admin role drops it too.
		if *p.Role != user.RoleAdmin {
			updates["is_superuser"] = false
		}
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("invalid input", fields)
	}
	if len(updates) == 0 {
		return u, nil
	}
	if err := s.ensureUnique(ctx, u.ID, username, email); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&user.User{}).Where("id = ?", u.ID).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("username", "username or email already taken")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	var out user.User
	if err := s.db.WithContext(ctx).First(&out, u.ID).Error; err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	return &out, nil
}

// ensureUnique reports which identity field is already held by another account.
func (s *Service) ensureUnique(ctx context.Context, selfID uint, username, email string) error {
	var others []user.User
	err := s.db.WithContext(ctx).
		Where("id <> ? AND (username = ? OR email = ?)", selfID, username, email).
		Find(&others).Error
	if err != nil {
		return fmt.Errorf("check identity: %w", err)
	}
	for _, o := range others {
		if o.Username == username {
			return apperr.Conflict("username", "a user with that username already exists")
		}
		if o.Email == email {
			return apperr.Conflict("email", "a user with that email already exists")
		}
	}
	return nil
}

func validateProfile(fields map[string]string, first, last string) {
	if err := user.ValidateName("first_name", first); err != nil {
		fields["first_name"] = err.Error()
	}
	if err := user.ValidateName("last_name", last); err != nil {
		fields["last_name"] = err.Error()
	}
}
