package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laporkota/laporkota/internal/domain"
	"github.com/laporkota/laporkota/internal/governance/audit"
	apperrors "github.com/laporkota/laporkota/internal/pkg/errors"
	"github.com/laporkota/laporkota/internal/pkg/logger"
	"github.com/laporkota/laporkota/internal/query"
	"github.com/laporkota/laporkota/internal/testutil"
)

func init() {
	_ = logger.Init("error", "json")
}

func TestCreateUser_NIKValidation(t *testing.T) {
	t.Parallel()
	// Validation runs before any storage access.
	admin := NewAdmin(nil, nil)

	tests := []struct {
		name string
		nik  string
	}{
		{"too short", "12345"},
		{"too long", "12345678901234567"},
		{"non numeric", "12345678901234ab"},
		{"empty", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := admin.CreateUser(context.Background(), CreateUserInput{
				Name:   "Test User",
				Email:  "user@example.com",
				NIK:    tt.nik,
				RoleID: 1,
			}, 1)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			appErr, ok := apperrors.IsAppError(err)
			require.True(t, ok)
			require.NotEmpty(t, appErr.FieldErrors)
			assert.Equal(t, "nik", appErr.FieldErrors[0].Field)
		})
	}
}

func setupAdmin(t *testing.T, prefix string) (*Admin, *Directory, *audit.Recorder) {
	t.Helper()
	db := testutil.OpenGormDB(t, prefix)
	rec := audit.NewRecorder(db)
	return NewAdmin(db, rec), New(db), rec
}

func TestUserLifecycle(t *testing.T) {
	admin, dir, _ := setupAdmin(t, "dir_lifecycle")
	ctx := context.Background()

	role, err := admin.CreateRole(ctx, CreateRoleInput{
		Name:        "petugas",
		Permissions: domain.BoolMap{domain.PermComplaintHandle: true},
	}, 1)
	require.NoError(t, err)

	user, err := admin.CreateUser(ctx, CreateUserInput{
		Name:   "Andi Wijaya",
		Email:  "andi@laporkota.go.id",
		NIK:    "3171234567890001",
		RoleID: role.ID,
	}, 1)
	require.NoError(t, err)
	assert.True(t, user.IsActive)

	loaded, err := dir.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Role)
	assert.True(t, dir.HasPermission(loaded.Role, domain.PermComplaintHandle))
	assert.False(t, dir.HasPermission(loaded.Role, domain.PermComplaintVerify))

	// Soft delete keeps the row but deactivates the account.
	require.NoError(t, admin.DeleteUser(ctx, user.ID, 1))
	loaded, err = dir.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Active())
	require.NotNil(t, loaded.DeletedAt)
}

func TestChangeRole_AuditedAsRoleChange(t *testing.T) {
	admin, _, rec := setupAdmin(t, "dir_rolechange")
	ctx := context.Background()

	roleA, err := admin.CreateRole(ctx, CreateRoleInput{Name: "viewer"}, 1)
	require.NoError(t, err)
	roleB, err := admin.CreateRole(ctx, CreateRoleInput{Name: "admin"}, 1)
	require.NoError(t, err)

	user, err := admin.CreateUser(ctx, CreateUserInput{
		Name:   "Rina",
		Email:  "rina@laporkota.go.id",
		NIK:    "3171234567890002",
		RoleID: roleA.ID,
	}, 1)
	require.NoError(t, err)

	updated, err := admin.ChangeRole(ctx, user.ID, roleB.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, roleB.ID, updated.RoleID)

	action := domain.AuditRoleChange
	entries, total, err := rec.Query(ctx, query.AuditFilter{Action: &action}, query.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].ResourceID)
	assert.Equal(t, user.ID, *entries[0].ResourceID)
}

func TestChangeRole_UnknownRole(t *testing.T) {
	admin, _, _ := setupAdmin(t, "dir_unknownrole")
	ctx := context.Background()

	role, err := admin.CreateRole(ctx, CreateRoleInput{Name: "viewer"}, 1)
	require.NoError(t, err)
	user, err := admin.CreateUser(ctx, CreateUserInput{
		Name:   "Dewi",
		Email:  "dewi@laporkota.go.id",
		NIK:    "3171234567890003",
		RoleID: role.ID,
	}, 1)
	require.NoError(t, err)

	_, err = admin.ChangeRole(ctx, user.ID, 999, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
