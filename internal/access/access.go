// Package access decides whether an actor may perform an action on a resource.
//
// Decisions come from a single policy table indexed by resource kind and action.
// Each cell is a predicate composed from named building blocks with AnyOf and
// AllOf. Collection-level checks pass a Resource without an owner; object-level
// checks fill in OwnerID so authorship predicates can apply.
package access

import (
	"go-yamdb/internal/apperr"
	"go-yamdb/internal/user"
)

// Actor is the requester of an operation. The zero value is anonymous.
type Actor struct {
	ID        uint
	Username  string
	Role      user.Role
	Superuser bool
}

// Anonymous is the unauthenticated actor.
var Anonymous = Actor{}

// ActorFromUser builds the actor for a loaded account.
func ActorFromUser(u *user.User) Actor {
	return Actor{ID: u.ID, Username: u.Username, Role: u.Role, Superuser: u.IsSuperuser}
}

func (a Actor) Authenticated() bool {
	return a.ID != 0
}

// IsAdmin includes the superuser flag.
func (a Actor) IsAdmin() bool {
	return a.Authenticated() && (a.Role == user.RoleAdmin || a.Superuser)
}

// IsModerator is true for moderators and everyone above them.
func (a Actor) IsModerator() bool {
	return a.IsAdmin() || (a.Authenticated() && a.Role == user.RoleModerator)
}

type Action int

const (
	Read Action = iota
	Create
	Update
	Delete
)

func (a Action) Safe() bool {
	return a == Read
}

type Kind int

const (
	// Catalog covers categories, genres and titles.
	Catalog Kind = iota
	// Content covers reviews and comments.
	Content
	// Accounts is the user administration collection.
	Accounts
	// Profile is the actor's own account (/users/me).
	Profile
)

// Resource identifies what is being acted on. OwnerID is zero at collection level.
type Resource struct {
	Kind    Kind
	OwnerID uint
}

func Collection(kind Kind) Resource {
	return Resource{Kind: kind}
}

func Object(kind Kind, ownerID uint) Resource {
	return Resource{Kind: kind, OwnerID: ownerID}
}

type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyForbidden
)

// Predicate is one named rule in the policy table.
type Predicate func(Actor, Action, Resource) bool

func Anyone(Actor, Action, Resource) bool { return true }

func Nobody(Actor, Action, Resource) bool { return false }

func SafeMethod(_ Actor, act Action, _ Resource) bool { return act.Safe() }

func Authenticated(a Actor, _ Action, _ Resource) bool { return a.Authenticated() }

func Admin(a Actor, _ Action, _ Resource) bool { return a.IsAdmin() }

func Moderator(a Actor, _ Action, _ Resource) bool { return a.IsModerator() }

// Owner holds when the resource belongs to the actor.
func Owner(a Actor, _ Action, r Resource) bool {
	return a.Authenticated() && r.OwnerID == a.ID
}

func AnyOf(ps ...Predicate) Predicate {
	return func(a Actor, act Action, r Resource) bool {
		for _, p := range ps {
			if p(a, act, r) {
				return true
			}
		}
		return false
	}
}

func AllOf(ps ...Predicate) Predicate {
	return func(a Actor, act Action, r Resource) bool {
		for _, p := range ps {
			if !p(a, act, r) {
				return false
			}
		}
		return true
	}
}

type rule map[Action]Predicate

var policy = map[Kind]rule{
	Catalog: {
		Read:   Anyone,
		Create: Admin,
		Update: Admin,
		Delete: Admin,
	},
	Content: {
		Read:   Anyone,
		Create: Authenticated,
		Update: AnyOf(Owner, Moderator),
		Delete: AnyOf(Owner, Moderator),
	},
	Accounts: {
		Read:   Admin,
		Create: Admin,
		Update: Admin,
		Delete: Admin,
	},
	Profile: {
		Read:   Owner,
		Create: Nobody,
		Update: Owner,
		Delete: Nobody,
	},
}

// Decide evaluates the policy table. Anonymous actors that fail a rule are told
// to authenticate; authenticated ones are forbidden.
func Decide(a Actor, act Action, r Resource) Decision {
	p, ok := policy[r.Kind][act]
	if !ok {
		p = Nobody
	}
	if p(a, act, r) {
		return Allow
	}
	if !a.Authenticated() {
		return DenyUnauthenticated
	}
	return DenyForbidden
}

// Check is Decide expressed as an error for service code.
func Check(a Actor, act Action, r Resource) error {
	switch Decide(a, act, r) {
	case Allow:
		return nil
	case DenyUnauthenticated:
		return apperr.Unauthenticated("authentication credentials were not provided")
	default:
		return apperr.Forbidden("you do not have permission to perform this action")
	}
}

// Precheck is the part of a decision that holds for every object of the kind:
// it evaluates the rule as if the actor owned the object, so it only fails when
// no object could allow the action. Handlers run it before reading a body.
func Precheck(a Actor, act Action, kind Kind) error {
	return Check(a, act, Resource{Kind: kind, OwnerID: a.ID})
}

// CanChangeRole reports whether the actor may assign roles, including its own.
func CanChangeRole(a Actor) bool {
	return a.IsAdmin()
}
