package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/geocoder89/learnhub/internal/access"
	"github.com/geocoder89/learnhub/internal/apperr"
	"github.com/geocoder89/learnhub/internal/auth"
	"github.com/geocoder89/learnhub/internal/domain/session"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/geocoder89/learnhub/internal/security"
)

// Tokens is what a successful sign-in hands back. The refresh token travels
// in an HttpOnly cookie, never in the body.
type Tokens struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type AuthService struct {
	users  UserStore
	tokens RefreshTokenStore
	jwt    *auth.Manager
}

func NewAuthService(users UserStore, tokens RefreshTokenStore, jwt *auth.Manager) *AuthService {
	return &AuthService{users: users, tokens: tokens, jwt: jwt}
}

// Register creates a STUDENT account and signs it in.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (user.User, Tokens, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)

	if name == "" {
		return user.User{}, Tokens{}, apperr.Validation("name must not be empty")
	}
	if len(password) < 8 {
		return user.User{}, Tokens{}, apperr.Validation("password must be at least 8 characters")
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return user.User{}, Tokens{}, apperr.Validation(err.Error())
		}
		return user.User{}, Tokens{}, err
	}

	u := user.New(email, hash, name, access.RoleStudent)
	if err := s.users.CreateUser(ctx, u); err != nil {
		return user.User{}, Tokens{}, err
	}

	slog.Default().InfoContext(ctx, "user.registered", "user_id", u.ID)

	tokens, err := s.issue(ctx, u)
	if err != nil {
		return user.User{}, Tokens{}, err
	}
	return u, tokens, nil
}

// Login answers the same error for an unknown email and a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (user.User, Tokens, error) {
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, Tokens{}, user.ErrInvalidLogin
		}
		return user.User{}, Tokens{}, err
	}

	if err := security.CheckPassword(u.PasswordHash, password); err != nil {
		return user.User{}, Tokens{}, user.ErrInvalidLogin
	}

	tokens, err := s.issue(ctx, u)
	if err != nil {
		return user.User{}, Tokens{}, err
	}
	return u, tokens, nil
}

// Refresh rotates the presented refresh token. The new access token carries
// the user's current role, so role changes apply at the next refresh.
func (s *AuthService) Refresh(ctx context.Context, raw string) (Tokens, error) {
	if raw == "" {
		return Tokens{}, session.ErrMissing
	}

	claims, err := s.jwt.VerifyRefreshToken(raw)
	if err != nil {
		return Tokens{}, session.ErrInvalid
	}

	u, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Tokens{}, session.ErrInvalid
		}
		return Tokens{}, err
	}

	newRaw, newJTI, expiresAt, err := s.jwt.GenerateRefreshToken(u.ID, u.Email, u.Role)
	if err != nil {
		return Tokens{}, err
	}

	next := session.RefreshToken{
		ID:        newJTI,
		UserID:    u.ID,
		TokenHash: s.jwt.HashRefreshToken(newRaw),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}

	err = s.tokens.RotateRefreshToken(ctx, claims.JTI, s.jwt.HashRefreshToken(raw), next)
	if err != nil {
		return Tokens{}, err
	}

	accessToken, err := s.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		return Tokens{}, err
	}

	return Tokens{AccessToken: accessToken, RefreshToken: newRaw, RefreshExpiresAt: expiresAt}, nil
}

// Logout revokes the presented refresh token. Unknown or malformed tokens
// are ignored.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}

	claims, err := s.jwt.VerifyRefreshToken(raw)
	if err != nil {
		return nil
	}
	return s.tokens.RevokeRefreshToken(ctx, claims.JTI)
}

func (s *AuthService) Me(ctx context.Context, id access.Identity) (user.User, error) {
	if err := access.RequireIdentity(id); err != nil {
		return user.User{}, err
	}
	return s.users.GetUserByID(ctx, id.UserID)
}

func (s *AuthService) issue(ctx context.Context, u user.User) (Tokens, error) {
	accessToken, err := s.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		return Tokens{}, err
	}

	raw, jti, expiresAt, err := s.jwt.GenerateRefreshToken(u.ID, u.Email, u.Role)
	if err != nil {
		return Tokens{}, err
	}

	err = s.tokens.CreateRefreshToken(ctx, session.RefreshToken{
		ID:        jti,
		UserID:    u.ID,
		TokenHash: s.jwt.HashRefreshToken(raw),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Tokens{}, err
	}

	return Tokens{AccessToken: accessToken, RefreshToken: raw, RefreshExpiresAt: expiresAt}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EnsureAdmin creates the bootstrap ADMIN account unless a user with that
// email already exists. Empty credentials disable it.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return err
	}

	err = s.users.CreateUser(ctx, user.New(email, hash, name, access.RoleAdmin))
	// lost a race with another instance
	if errors.Is(err, user.ErrEmailTaken) {
		return nil
	}
	if err != nil {
		return err
	}

	slog.Default().InfoContext(ctx, "admin user ensured", "email", email)
	return nil
}
