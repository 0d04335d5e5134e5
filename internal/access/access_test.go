package access

import (
	"testing"

	"go-yamdb/internal/apperr"
	"go-yamdb/internal/user"
)

var (
	admin     = Actor{ID: 1, Username: "admin", Role: user.RoleAdmin}
	moderator = Actor{ID: 2, Username: "mod", Role: user.RoleModerator}
	author    = Actor{ID: 3, Username: "author", Role: user.RoleUser}
	stranger  = Actor{ID: 4, Username: "stranger", Role: user.RoleUser}
	superuser = Actor{ID: 5, Username: "root", Role: user.RoleUser, Superuser: true}
)

func TestDecide_PolicyTable(t *testing.T) {
	review := Object(Content, author.ID)
	self := func(a Actor) Resource { return Object(Profile, a.ID) }

	cases := []struct {
		name  string
		actor Actor
		act   Action
		res   Resource
		want  Decision
	}{
		{"anon reads catalog", Anonymous, Read, Collection(Catalog), Allow},
		{"anon reads content", Anonymous, Read, Collection(Content), Allow},
		{"anon creates catalog", Anonymous, Create, Collection(Catalog), DenyUnauthenticated},
		{"anon creates content", Anonymous, Create, Collection(Content), DenyUnauthenticated},
		{"user creates catalog", author, Create, Collection(Catalog), DenyForbidden},
		{"moderator creates catalog", moderator, Create, Collection(Catalog), DenyForbidden},
		{"admin creates catalog", admin, Create, Collection(Catalog), Allow},
		{"superuser deletes catalog", superuser, Delete, Object(Catalog, 0), Allow},
		{"user creates review", stranger, Create, Collection(Content), Allow},
		{"author updates own review", author, Update, review, Allow},
		{"author deletes own review", author, Delete, review, Allow},
		{"stranger updates review", stranger, Update, review, DenyForbidden},
		{"anon updates review", Anonymous, Update, review, DenyUnauthenticated},
		{"moderator updates review", moderator, Update, review, Allow},
		{"admin deletes review", admin, Delete, review, Allow},
		{"user lists accounts", author, Read, Collection(Accounts), DenyForbidden},
		{"moderator lists accounts", moderator, Read, Collection(Accounts), DenyForbidden},
		{"anon lists accounts", Anonymous, Read, Collection(Accounts), DenyUnauthenticated},
		{"admin creates account", admin, Create, Collection(Accounts), Allow},
		{"user reads own profile", author, Read, self(author), Allow},
		{"user updates own profile", author, Update, self(author), Allow},
		{"anon reads profile", Anonymous, Read, self(Anonymous), DenyUnauthenticated},
		{"profile cannot be deleted", author, Delete, self(author), DenyForbidden},
	}
	for _, tc := range cases {
		if got := Decide(tc.actor, tc.act, tc.res); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestCheck_ErrorKinds(t *testing.T) {
	if err := Check(admin, Create, Collection(Catalog)); err != nil {
		t.Errorf("admin should be allowed: %v", err)
	}
	if k := apperr.KindOf(Check(Anonymous, Create, Collection(Catalog))); k != apperr.KindUnauthenticated {
		t.Errorf("expected unauthenticated, got %s", k)
	}
	if k := apperr.KindOf(Check(stranger, Delete, Object(Content, author.ID))); k != apperr.KindForbidden {
		t.Errorf("expected forbidden, got %s", k)
	}
}

func TestRoleHierarchy(t *testing.T) {
	if !admin.IsModerator() {
		t.Errorf("admin should pass moderator checks")
	}
	if !superuser.IsAdmin() || !superuser.IsModerator() {
		t.Errorf("superuser should pass admin and moderator checks")
	}
	if author.IsModerator() {
		t.Errorf("regular user is not a moderator")
	}
	if (Actor{Role: user.RoleAdmin}).IsAdmin() {
		t.Errorf("an unauthenticated actor never holds a role")
	}
}

func TestCanChangeRole(t *testing.T) {
	if CanChangeRole(moderator) || CanChangeRole(author) {
		t.Errorf("only admins may change roles")
	}
	if !CanChangeRole(admin) || !CanChangeRole(superuser) {
		t.Errorf("admins may change roles")
	}
}

func TestCombinators(t *testing.T) {
	p := AllOf(Authenticated, AnyOf(Owner, Admin))
	if p(Anonymous, Update, Object(Content, 0)) {
		t.Errorf("anonymous actor must not own an ownerless resource")
	}
	if !p(author, Update, Object(Content, author.ID)) {
		t.Errorf("owner should pass")
	}
	if !p(admin, Update, Object(Content, author.ID)) {
		t.Errorf("admin should pass")
	}
}

func TestPrecheck(t *testing.T) {
	cases := []struct {
		name  string
		actor Actor
		act   Action
		kind  Kind
		want  apperr.Kind
	}{
		{"anon creates catalog", Anonymous, Create, Catalog, apperr.KindUnauthenticated},
		{"user creates catalog", stranger, Create, Catalog, apperr.KindForbidden},
		{"anon updates content", Anonymous, Update, Content, apperr.KindUnauthenticated},
		{"anon updates profile", Anonymous, Update, Profile, apperr.KindUnauthenticated},
		{"user lists accounts", stranger, Read, Accounts, apperr.KindForbidden},
		{"profile cannot be deleted", author, Delete, Profile, apperr.KindForbidden},
	}
	for _, tc := range cases {
		if k := apperr.KindOf(Precheck(tc.actor, tc.act, tc.kind)); k != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, k)
		}
	}

	// Ownership is unknown before the object loads, so any authenticated
	// actor passes; the object-level check decides later.
	for _, a := range []Actor{stranger, moderator} {
		if err := Precheck(a, Update, Content); err != nil {
			t.Errorf("%s should pass the content precheck: %v", a.Username, err)
		}
	}
	if err := Precheck(author, Update, Profile); err != nil {
		t.Errorf("own profile update should pass: %v", err)
	}
	if err := Precheck(admin, Delete, Accounts); err != nil {
		t.Errorf("admin should pass: %v", err)
	}
}
