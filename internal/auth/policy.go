package auth

import (
	"slices"

	"github.com/kmazurek/storefront/internal/apperr"
	"github.com/kmazurek/storefront/internal/models"
)

// Permission tokens a user may hold.
const (
	PermUser             = "USER"
	PermAdmin            = "ADMIN"
	PermItemCreate       = "ITEMCREATE"
	PermItemUpdate       = "ITEMUPDATE"
	PermItemDelete       = "ITEMDELETE"
	PermPermissionUpdate = "PERMISSIONUPDATE"
)

var knownPermissions = []string{
	PermUser,
	PermAdmin,
	PermItemCreate,
	PermItemUpdate,
	PermItemDelete,
	PermPermissionUpdate,
}

func ValidPermission(p string) bool {
	return slices.Contains(knownPermissions, p)
}

// Policy is a declarative access rule. Each gated operation picks exactly
// one: a pure role gate, or a gate that also admits the resource owner.
type Policy struct {
	Roles      []string
	AllowOwner bool
}

func RequireRole(roles ...string) Policy {
	return Policy{Roles: roles}
}

func RequireOwnerOr(roles ...string) Policy {
	return Policy{Roles: roles, AllowOwner: true}
}

// Check admits the user when they hold one of the required roles, or, for
// owner-admitting policies, when they own the target resource. ownerID is
// ignored by pure role gates.
func (p Policy) Check(user *models.User, ownerID uint) error {
	if user == nil {
		return apperr.ErrUnauthenticated
	}
	if p.AllowOwner && user.ID == ownerID {
		return nil
	}
	for _, role := range p.Roles {
		if slices.Contains(user.Permissions, role) {
			return nil
		}
	}
	return apperr.ErrForbidden
}
