package user

import (
	"time"

	"github.com/geocoder89/learnhub/internal/access"
	"github.com/geocoder89/learnhub/internal/apperr"
	"github.com/google/uuid"
)

type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"` // never expose hash in JSON
	Name         string      `json:"name"`
	Role         access.Role `json:"role"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Summary is the shape embedded when a user appears inside another resource.
type Summary struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  access.Role `json:"role"`
}

func (u User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

var (
	ErrNotFound     = apperr.NotFound("User not found")
	ErrEmailTaken   = apperr.Conflict("email_taken", "Email is already in use.")
	ErrOwnsCourses  = apperr.Conflict("user_owns_courses", "User still owns courses; delete or reassign them first.")
	ErrInvalidLogin = apperr.Unauthenticated("Email or password is incorrect.")
)

// New builds a user with a fresh id and timestamps. Role falls back to STUDENT.
func New(email, passwordHash, name string, role access.Role) User {
	if !role.IsValid() {
		role = access.RoleStudent
	}
	now := time.Now().UTC()

	return User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
