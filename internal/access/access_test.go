package access

import (
	"errors"
	"testing"

	"github.com/geocoder89/learnhub/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	staff := []Role{RoleAdmin, RoleManager, RoleHR}

	tests := []struct {
		name     string
		id       Identity
		required []Role
		kind     error
		message  string
	}{
		{
			name: "public operation allows anonymous",
			id:   Identity{},
		},
		{
			name:     "anonymous caller on gated operation",
			id:       Identity{},
			required: staff,
			kind:     apperr.ErrUnauthenticated,
			message:  "unauthenticated",
		},
		{
			name:     "student denied from staff operation",
			id:       Identity{UserID: "u1", Role: RoleStudent},
			required: staff,
			kind:     apperr.ErrForbidden,
			message:  "forbidden: role STUDENT not in {ADMIN, MANAGER, HR}",
		},
		{
			name:     "unknown role rejected explicitly",
			id:       Identity{UserID: "u1", Role: Role("admin")},
			required: []Role{RoleAdmin},
			kind:     apperr.ErrForbidden,
			message:  `forbidden: unknown role "admin"`,
		},
		{
			name:     "member of the set allowed",
			id:       Identity{UserID: "u1", Role: RoleHR},
			required: staff,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.id, tt.required...)

			if tt.kind == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestAuthorize_Deterministic(t *testing.T) {
	id := Identity{UserID: "u1", Role: RoleInstructor}

	first := Authorize(id, RoleAdmin)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first.Error(), Authorize(id, RoleAdmin).Error())
	}
}

func TestParseRole(t *testing.T) {
	t.Run("valid role", func(t *testing.T) {
		r, err := ParseRole("MANAGER")
		require.NoError(t, err)
		assert.Equal(t, RoleManager, r)
	})

	t.Run("invalid role lists the valid set", func(t *testing.T) {
		_, err := ParseRole("SUPERUSER")
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrValidation))
		assert.Contains(t, err.Error(), "{STUDENT, INSTRUCTOR, MANAGER, HR, ADMIN}")

		appErr, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, map[string]interface{}{"validRoles": AllRoles}, appErr.Details)
	})

	t.Run("lower case is not accepted", func(t *testing.T) {
		_, err := ParseRole("admin")
		assert.Error(t, err)
	})
}

func TestCanManage(t *testing.T) {
	assert.True(t, CanManage(Identity{UserID: "owner", Role: RoleInstructor}, "owner"))
	assert.True(t, CanManage(Identity{UserID: "root", Role: RoleAdmin}, "owner"))
	assert.False(t, CanManage(Identity{UserID: "other", Role: RoleManager}, "owner"))
	assert.False(t, CanManage(Identity{}, ""))
}
