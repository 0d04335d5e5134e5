package user

import (
	"time"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	}
	return false
}

// CodeSentinel marks an account with no outstanding confirmation code.
// It is never a valid bcrypt hash, so no submitted code can match it.
const CodeSentinel = "!"

type User struct {
	ID               uint       `gorm:"primaryKey" json:"-"`
	Username         string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email            string     `gorm:"uniqueIndex;size:254;not null" json:"email"`
	FirstName        string     `gorm:"size:150" json:"first_name"`
	LastName         string     `gorm:"size:150" json:"last_name"`
	Bio              string     `gorm:"type:text" json:"bio"`
	Role             Role       `gorm:"type:varchar(16);not null;default:'user'" json:"role"`
	IsSuperuser      bool       `gorm:"not null;default:false" json:"-"`
	ConfirmationCode string     `gorm:"size:72;not null;default:'!'" json:"-"`
	CodeExpiresAt    *time.Time `json:"-"`
	CodeSentAt       *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"-"`
	UpdatedAt        time.Time  `json:"-"`
}

// HasPendingCode reports whether a confirmation code is outstanding.
func (u *User) HasPendingCode() bool {
	return u.ConfirmationCode != "" && u.ConfirmationCode != CodeSentinel
}
