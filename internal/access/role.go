package access

import (
	"strings"

	"github.com/geocoder89/learnhub/internal/apperr"
)

type Role string

const (
	RoleStudent    Role = "STUDENT"
	RoleInstructor Role = "INSTRUCTOR"
	RoleManager    Role = "MANAGER"
	RoleHR         Role = "HR"
	RoleAdmin      Role = "ADMIN"
)

// AllRoles lists every role in declaration order. Error messages enumerate it.
var AllRoles = []Role{RoleStudent, RoleInstructor, RoleManager, RoleHR, RoleAdmin}

func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleManager, RoleHR, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// ParseRole accepts only the exact enum spelling.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", apperr.Validationf("invalid role: %q. valid roles are: %s", s, FormatRoles(AllRoles)).
			WithDetails(map[string]interface{}{"validRoles": AllRoles})
	}
	return r, nil
}

// FormatRoles renders a role set as "{A, B, C}".
func FormatRoles(roles []Role) string {
	parts := make([]string, 0, len(roles))
	for _, r := range roles {
		parts = append(parts, string(r))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
