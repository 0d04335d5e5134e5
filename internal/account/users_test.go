package account

import (
	"context"
	"testing"

	"go-yamdb/internal/access"
	"go-yamdb/internal/apperr"
	"go-yamdb/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedActor(t *testing.T, svc *Service, username string, role user.Role) access.Actor {
	t.Helper()
	u := user.User{Username: username, Email: username + "@x.com", Role: role, ConfirmationCode: user.CodeSentinel}
	require.NoError(t, svc.db.Create(&u).Error)
	return access.ActorFromUser(&u)
}

func TestUsersAdmin_Permissions(t *testing.T) {
	svc, _, _ := newService(t, nil)
	ctx := context.Background()
	bob := seedActor(t, svc, "bob", user.RoleUser)
	mod := seedActor(t, svc, "mod", user.RoleModerator)

	_, err := svc.ListUsers(ctx, access.Anonymous)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = svc.ListUsers(ctx, bob)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = svc.ListUsers(ctx, mod)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = svc.GetUser(ctx, bob, "mod")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteUser(ctx, mod, "bob"), apperr.ErrForbidden)
}

func TestUsersAdmin_CRUD(t *testing.T) {
	svc, _, _ := newService(t, nil)
	ctx := context.Background()
	admin := seedActor(t, svc, "root", user.RoleAdmin)

	created, err := svc.CreateUser(ctx, admin, UserInput{Username: "carol", Email: "carol@x.com", Role: user.RoleModerator, Bio: "hi"})
	require.NoError(t, err)
	assert.Equal(t, user.RoleModerator, created.Role)

	_, err = svc.CreateUser(ctx, admin, UserInput{Username: "carol", Email: "c2@x.com"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	_, err = svc.CreateUser(ctx, admin, UserInput{Username: "dave", Email: "dave@x.com", Role: "king"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	list, err := svc.ListUsers(ctx, admin)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "carol", list[0].Username)

	role := user.RoleUser
	last := "Smith"
	updated, err := svc.UpdateUser(ctx, admin, "carol", UserPatch{Role: &role, LastName: &last})
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, updated.Role)
	assert.Equal(t, "Smith", updated.LastName)
	assert.Equal(t, "hi", updated.Bio)

	taken := "root"
	_, err = svc.UpdateUser(ctx, admin, "carol", UserPatch{Username: &taken})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	require.NoError(t, svc.DeleteUser(ctx, admin, "carol"))
	_, err = svc.GetUser(ctx, admin, "carol")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteUser_RemovesAuthoredContent(t *testing.T) {
	svc, _, gdb := newService(t, nil)
	ctx := context.Background()
	admin := seedActor(t, svc, "root", user.RoleAdmin)
	bob := seedActor(t, svc, "bob", user.RoleUser)

	require.NoError(t, gdb.Exec("INSERT INTO categories (name, slug) VALUES ('Movie', 'movie')").Error)
	require.NoError(t, gdb.Exec("INSERT INTO titles (name, year, description) VALUES ('Stalker', 1979, '')").Error)
	require.NoError(t, gdb.Exec("INSERT INTO reviews (title_id, author_id, text, score, pub_date) VALUES (1, ?, 'ok', 7, CURRENT_TIMESTAMP)", bob.ID).Error)
	require.NoError(t, gdb.Exec("INSERT INTO comments (review_id, author_id, text, pub_date) VALUES (1, ?, 'nice', CURRENT_TIMESTAMP)", admin.ID).Error)

	require.NoError(t, svc.DeleteUser(ctx, admin, "bob"))
	var reviews, comments int64
	gdb.Table("reviews").Count(&reviews)
	gdb.Table("comments").Count(&comments)
	assert.Zero(t, reviews)
	assert.Zero(t, comments, "comments under the user's reviews go too")
}

func TestMe(t *testing.T) {
	svc, _, _ := newService(t, nil)
	ctx := context.Background()
	bob := seedActor(t, svc, "bob", user.RoleUser)

	_, err := svc.Me(ctx, access.Anonymous)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	me, err := svc.Me(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, "bob", me.Username)
}

func TestUpdateMe_RoleIgnoredForNonAdmin(t *testing.T) {
	svc, _, _ := newService(t, nil)
	ctx := context.Background()
	bob := seedActor(t, svc, "bob", user.RoleUser)

	role := user.RoleAdmin
	bio := "film buff"
	me, err := svc.UpdateMe(ctx, bob, UserPatch{Role: &role, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, me.Role, "role must not change")
	assert.Equal(t, "film buff", me.Bio)

	_, err = svc.UpdateMe(ctx, access.Anonymous, UserPatch{Bio: &bio})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestUpdateMe_AdminMayChangeOwnRole(t *testing.T) {
	svc, _, _ := newService(t, nil)
	ctx := context.Background()
	admin := seedActor(t, svc, "root", user.RoleAdmin)

	role := user.RoleModerator
	me, err := svc.UpdateMe(ctx, admin, UserPatch{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, user.RoleModerator, me.Role)
}

func TestUpdateMe_ReservedUsername(t *testing.T) {
	svc, _, _ := newService(t, nil)
	bob := seedActor(t, svc, "bob", user.RoleUser)
	name := "me"
	_, err := svc.UpdateMe(context.Background(), bob, UserPatch{Username: &name})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateUser_DemotingSuperuserRevokesAdmin(t *testing.T) {
	svc, _, _ := newService(t, nil)
	ctx := context.Background()
	root, err := svc.Bootstrap(ctx, SignupInput{Username: "root", Email: "root@x.com"})
	require.NoError(t, err)
	other := seedActor(t, svc, "admin2", user.RoleAdmin)

	role := user.RoleUser
	updated, err := svc.UpdateUser(ctx, other, "root", UserPatch{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, updated.Role)
	assert.False(t, updated.IsSuperuser, "leaving the admin role clears the superuser flag")

	actor, err := svc.ResolveActor(ctx, root.ID)
	require.NoError(t, err)
	assert.False(t, actor.IsAdmin())
	_, err = svc.ListUsers(ctx, actor)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestUpdateUser_AdminRoleKeepsSuperuser(t *testing.T) {
	svc, _, _ := newService(t, nil)
	ctx := context.Background()
	root, err := svc.Bootstrap(ctx, SignupInput{Username: "root", Email: "root@x.com"})
	require.NoError(t, err)

	role := user.RoleAdmin
	updated, err := svc.UpdateUser(ctx, access.ActorFromUser(root), "root", UserPatch{Role: &role})
	require.NoError(t, err)
	assert.True(t, updated.IsSuperuser)
}
