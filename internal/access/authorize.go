package access

import (
	"fmt"

	"github.com/geocoder89/learnhub/internal/apperr"
)

// Identity is the resolved caller. The zero value is an anonymous caller.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// Authorize decides whether the caller may invoke an operation gated by the
// required role set. An empty set means the operation is public.
func Authorize(id Identity, required ...Role) error {
	if len(required) == 0 {
		return nil
	}

	if !id.Authenticated() {
		return apperr.Unauthenticated("unauthenticated")
	}

	if !id.Role.IsValid() {
		return apperr.Forbidden(fmt.Sprintf("forbidden: unknown role %q", string(id.Role)))
	}

	for _, r := range required {
		if id.Role == r {
			return nil
		}
	}

	return apperr.Forbidden(fmt.Sprintf("forbidden: role %s not in %s", id.Role, FormatRoles(required)))
}

// RequireIdentity is the gate for operations open to any signed-in caller.
func RequireIdentity(id Identity) error {
	if !id.Authenticated() {
		return apperr.Unauthenticated("unauthenticated")
	}
	if !id.Role.IsValid() {
		return apperr.Forbidden(fmt.Sprintf("forbidden: unknown role %q", string(id.Role)))
	}
	return nil
}

// CanManage reports whether the caller owns a resource or holds ADMIN.
func CanManage(id Identity, ownerID string) bool {
	if !id.Authenticated() {
		return false
	}
	return id.Role == RoleAdmin || id.UserID == ownerID
}
