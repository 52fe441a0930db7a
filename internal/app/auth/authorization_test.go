package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	pkgauth "github.com/yigit/schoolsphere/internal/pkg/auth"
)

func TestScopeFor(t *testing.T) {
	tests := []struct {
		role models.RoleType
		want models.Scope
	}{
		{models.RoleSuperAdmin, models.Scope{All: true}},
		{models.RoleSchoolAdmin, models.Scope{All: true}},
		{models.RoleTeacher, models.Scope{TeacherID: 9}},
		{models.RoleStudent, models.Scope{StudentID: 9}},
		{models.RoleParent, models.Scope{ParentID: 9}},
		{models.RoleLibrarian, models.Scope{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, ScopeFor(&Actor{UserID: 9, Role: tt.role}))
		})
	}
	assert.False(t, Visible(ScopeFor(nil)))
}

func TestModuleScope(t *testing.T) {
	librarian := &Actor{UserID: 3, Role: models.RoleLibrarian}
	assert.True(t, ModuleScope(librarian, models.RoleLibrarian).All)
	assert.False(t, Visible(ModuleScope(librarian, models.RoleAccountant)))
}

func TestRequire(t *testing.T) {
	teacher := &Actor{UserID: 4, Role: models.RoleTeacher}

	assert.NoError(t, Require(teacher, models.RoleTeacher, models.RoleSchoolAdmin))
	assert.ErrorIs(t, RequireAdmin(teacher), apperrors.ErrPermissionDenied)
	assert.NoError(t, RequireAdminOrSelf(teacher, 4))
	assert.ErrorIs(t, RequireAdminOrSelf(teacher, 5), apperrors.ErrPermissionDenied)
	assert.ErrorIs(t, Require(nil, models.RoleTeacher), apperrors.ErrPermissionDenied)
}

func TestActorContext(t *testing.T) {
	a := ActorFromClaims(&pkgauth.Claims{UserID: 1, Username: "root", Role: "super_admin", Schema: "public"})
	ctx := WithActor(context.Background(), a)

	got, ok := ActorFrom(ctx)
	assert.True(t, ok)
	assert.True(t, got.IsAdmin())

	_, ok = ActorFrom(context.Background())
	assert.False(t, ok)
}
