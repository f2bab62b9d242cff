package services

import (
	"context"
	"testing"
	"time"

	"buildtrack/models"
	"buildtrack/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	return NewUserService(openTestStore(t), nil, "test-secret", time.Hour)
}

func TestLogin(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()
	admin, err := svc.CreateAdmin(ctx, "Root", "Root@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "root@example.com", admin.Email)

	token, u, err := svc.Login(ctx, "root@example.com", "secret1")
	require.NoError(t, err)
	assert.NotNil(t, u.LastLogin)
	claims, err := utils.ValidateJWT("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	_, _, err = svc.Login(ctx, "root@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()
	admin, err := svc.CreateAdmin(ctx, "Root", "root@example.com", "secret1")
	require.NoError(t, err)
	viewer, err := svc.Register(ctx, NewCaller(admin), models.RegisterInput{Name: "V", Email: "v@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, viewer.Role)

	active, err := svc.ToggleStatus(ctx, NewCaller(admin), viewer.ID)
	require.NoError(t, err)
	assert.False(t, active)

	_, _, err = svc.Login(ctx, "v@example.com", "secret1")
	assert.ErrorIs(t, err, ErrAccountDisabled)
	_, err = svc.CallerFor(ctx, viewer.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRegister_Rules(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()
	admin, err := svc.CreateAdmin(ctx, "Root", "root@example.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, callerWith(models.RoleManager), models.RegisterInput{Name: "X", Email: "x@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInsufficientRole)

	_, err = svc.Register(ctx, NewCaller(admin), models.RegisterInput{Name: "Dup", Email: "ROOT@example.com", Password: "secret1"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Email already registered", verr.Fields[0].Message)

	_, err = svc.Register(ctx, NewCaller(admin), models.RegisterInput{Name: "Short", Email: "s@example.com", Password: "123"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Fields[0].Field)
}

func TestLastAdminGuard(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()
	admin, err := svc.CreateAdmin(ctx, "Root", "root@example.com", "secret1")
	require.NoError(t, err)
	c := NewCaller(admin)

	var rule *RuleError
	err = svc.Delete(ctx, c, admin.ID)
	require.ErrorAs(t, err, &rule)
	assert.Equal(t, "Cannot delete the last admin user", rule.Message)

	manager := models.RoleManager
	_, err = svc.Update(ctx, c, admin.ID, models.UserUpdateInput{Role: &manager})
	require.ErrorAs(t, err, &rule)
	assert.Equal(t, "Cannot demote the last admin user", rule.Message)

	_, err = svc.ToggleStatus(ctx, c, admin.ID)
	require.ErrorAs(t, err, &rule)
	assert.Equal(t, "Cannot deactivate the last admin user", rule.Message)

	second, err := svc.CreateAdmin(ctx, "Second", "second@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, c, second.ID))
}

func TestAssignProjects(t *testing.T) {
	store := openTestStore(t)
	svc := NewUserService(store, nil, "test-secret", time.Hour)
	ctx := context.Background()
	admin, err := svc.CreateAdmin(ctx, "Root", "root@example.com", "secret1")
	require.NoError(t, err)
	sup, err := svc.Register(ctx, NewCaller(admin), models.RegisterInput{
		Name: "Site", Email: "site@example.com", Password: "secret1", Role: models.RoleSupervisor,
	})
	require.NoError(t, err)
	a := seedProject(t, store, 0)
	b := seedProject(t, store, 0)

	_, err = svc.AssignProjects(ctx, NewCaller(admin), sup.ID, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	_, err = svc.AssignProjects(ctx, NewCaller(admin), sup.ID, []string{"missing"})
	require.ErrorAs(t, err, &verr)

	ids, err := svc.AssignProjects(ctx, NewCaller(admin), sup.ID, []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	ids, err = svc.AssignProjects(ctx, NewCaller(admin), sup.ID, []string{b.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids)

	c, err := svc.CallerFor(ctx, sup.ID)
	require.NoError(t, err)
	assert.NoError(t, CheckProjectAccess(c, b.ID))
	assert.ErrorIs(t, CheckProjectAccess(c, a.ID), ErrNotAssigned)
}

func TestChangePassword(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()
	admin, err := svc.CreateAdmin(ctx, "Root", "root@example.com", "secret1")
	require.NoError(t, err)
	c := NewCaller(admin)

	err = svc.ChangePassword(ctx, c, models.ChangePasswordInput{CurrentPassword: "nope", NewPassword: "secret2"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Current password is incorrect", verr.Fields[0].Message)

	require.NoError(t, svc.ChangePassword(ctx, c, models.ChangePasswordInput{CurrentPassword: "secret1", NewPassword: "secret2"}))
	_, _, err = svc.Login(ctx, "root@example.com", "secret2")
	assert.NoError(t, err)
}

func TestUserStats(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()
	admin, err := svc.CreateAdmin(ctx, "Root", "root@example.com", "secret1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, NewCaller(admin), models.RegisterInput{Name: "M", Email: "m@example.com", Password: "secret1", Role: models.RoleManager})
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, "root@example.com", "secret1")
	require.NoError(t, err)

	st, err := svc.Stats(ctx, NewCaller(admin))
	require.NoError(t, err)
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 2, st.Active)
	assert.Equal(t, 1, st.ByRole[models.RoleManager])
	require.Len(t, st.RecentLogins, 1)
	assert.Equal(t, admin.ID, st.RecentLogins[0].ID)
}
