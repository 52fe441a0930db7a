// Package auth decides what an authenticated caller may see and do.
package auth

import (
	"context"
	"fmt"

	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	pkgauth "github.com/yigit/schoolsphere/internal/pkg/auth"
)

// Actor is the caller behind a request, as read from its access token.
type Actor struct {
	UserID   int64
	Username string
	Role     models.RoleType
	Schema   string
}

// ActorFromClaims builds an actor from validated token claims.
func ActorFromClaims(c *pkgauth.Claims) *Actor {
	return &Actor{
		UserID:   c.UserID,
		Username: c.Username,
		Role:     models.RoleType(c.Role),
		Schema:   c.Schema,
	}
}

// IsAdmin is true for super and school admins.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role.IsAdmin()
}

// Is reports whether the actor holds any of roles.
func (a *Actor) Is(roles ...models.RoleType) bool {
	if a == nil {
		return false
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// IsSelf reports whether userID is the actor.
func (a *Actor) IsSelf(userID int64) bool {
	return a != nil && a.UserID == userID
}

// Require fails with a forbidden error unless the actor holds one of roles.
func Require(a *Actor, roles ...models.RoleType) error {
	if a.Is(roles...) {
		return nil
	}
	return apperrors.NewForbiddenError(fmt.Sprintf("this action requires one of the roles %v", roles))
}

// RequireAdmin fails unless the actor is an admin.
func RequireAdmin(a *Actor) error {
	return Require(a, models.RoleSuperAdmin, models.RoleSchoolAdmin)
}

// RequireAdminOrSelf allows admins and the user themself.
func RequireAdminOrSelf(a *Actor, userID int64) error {
	if a.IsAdmin() || a.IsSelf(userID) {
		return nil
	}
	return apperrors.NewForbiddenError("you can only act on your own account")
}

// ScopeFor maps the actor's role onto the rows it may read.
// Staff roles that manage a whole module see everything in it; see ModuleScope.
func ScopeFor(a *Actor) models.Scope {
	switch {
	case a == nil:
		return models.Scope{}
	case a.IsAdmin():
		return models.Scope{All: true}
	case a.Role == models.RoleTeacher:
		return models.Scope{TeacherID: a.UserID}
	case a.Role == models.RoleStudent:
		return models.Scope{StudentID: a.UserID}
	case a.Role == models.RoleParent:
		return models.Scope{ParentID: a.UserID}
	}
	return models.Scope{}
}

// ModuleScope is ScopeFor with extra roles granted full visibility, such as
// librarians over circulation or accountants over fees.
func ModuleScope(a *Actor, managers ...models.RoleType) models.Scope {
	if a.Is(managers...) {
		return models.Scope{All: true}
	}
	return ScopeFor(a)
}

// Visible reports whether a scope yields any rows at all.
func Visible(s models.Scope) bool {
	return s.All || s.TeacherID != 0 || s.StudentID != 0 || s.ParentID != 0
}

type actorKey struct{}

// WithActor binds a to ctx.
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the actor bound to ctx.
func ActorFrom(ctx context.Context) (*Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(*Actor)
	return a, ok && a != nil
}
