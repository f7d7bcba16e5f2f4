package session

import (
	"time"

	"github.com/geocoder89/learnhub/internal/apperr"
)

// RefreshToken is the server-side record of an issued refresh token. Only the
// HMAC of the raw token is kept.
type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy *string
	CreatedAt  time.Time
}

var (
	ErrInvalid = apperr.New(apperr.ErrUnauthenticated, "invalid_refresh", "Invalid refresh token.")
	ErrExpired = apperr.New(apperr.ErrUnauthenticated, "expired_refresh", "Refresh token expired.")
	ErrMissing = apperr.New(apperr.ErrUnauthenticated, "no_refresh", "Missing refresh token.")
)

// Usable reports whether the token may still be exchanged at now.
func (t RefreshToken) Usable(now time.Time) error {
	if t.RevokedAt != nil {
		return ErrInvalid
	}
	if now.After(t.ExpiresAt) {
		return ErrExpired
	}
	return nil
}
