package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/learnhub/internal/access"
	"github.com/geocoder89/learnhub/internal/config"
	"github.com/geocoder89/learnhub/internal/domain/session"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/geocoder89/learnhub/internal/http/middlewares"
	"github.com/geocoder89/learnhub/internal/service"
	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Register(ctx context.Context, email, password, name string) (user.User, service.Tokens, error)
	Login(ctx context.Context, email, password string) (user.User, service.Tokens, error)
	Refresh(ctx context.Context, raw string) (service.Tokens, error)
	Logout(ctx context.Context, raw string) error
	Me(ctx context.Context, id access.Identity) (user.User, error)
}

type AuthHandler struct {
	svc Authenticator
	cfg config.Config
}

func NewAuthHandler(svc Authenticator, cfg config.Config) *AuthHandler {
	return &AuthHandler{svc: svc, cfg: cfg}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,max=120"`
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	u, tokens, err := h.svc.Register(cctx, req.Email, req.Password, req.Name)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	h.setRefreshCookie(ctx, tokens.RefreshToken, tokens.RefreshExpiresAt)

	ctx.JSON(http.StatusCreated, gin.H{
		"accessToken": tokens.AccessToken,
		"user":        u,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	u, tokens, err := h.svc.Login(cctx, req.Email, req.Password)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	h.setRefreshCookie(ctx, tokens.RefreshToken, tokens.RefreshExpiresAt)

	ctx.JSON(http.StatusOK, gin.H{
		"accessToken": tokens.AccessToken,
		"user":        u,
	})
}

func (h *AuthHandler) Refresh(ctx *gin.Context) {
	raw, err := ctx.Cookie(h.refreshCookieName())

	if err != nil || raw == "" {
		RespondDomainError(ctx, session.ErrMissing)
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	tokens, err := h.svc.Refresh(cctx, raw)
	if err != nil {
		// a dead token should not linger in the browser
		h.clearRefreshCookie(ctx)
		RespondDomainError(ctx, err)
		return
	}

	h.setRefreshCookie(ctx, tokens.RefreshToken, tokens.RefreshExpiresAt)

	ctx.JSON(http.StatusOK, gin.H{
		"accessToken": tokens.AccessToken,
	})
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	raw, _ := ctx.Cookie(h.refreshCookieName())

	cctx, cancel := requestContext(ctx)
	defer cancel()

	if err := h.svc.Logout(cctx, raw); err != nil {
		RespondDomainError(ctx, err)
		return
	}

	h.clearRefreshCookie(ctx)
	ctx.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	u, err := h.svc.Me(cctx, middlewares.IdentityFrom(ctx))
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *AuthHandler) refreshCookieName() string {
	return "refresh_token"
}

func (h *AuthHandler) setRefreshCookie(ctx *gin.Context, raw string, expiresAt time.Time) {
	secure := h.cfg.Env == "prod"

	maxAge := int(time.Until(expiresAt).Seconds())

	ctx.SetSameSite(http.SameSiteStrictMode)

	ctx.SetCookie(
		h.refreshCookieName(),
		raw,
		maxAge,
		"/auth",
		"",
		secure,
		true, // HttpOnly.
	)
}

func (h *AuthHandler) clearRefreshCookie(ctx *gin.Context) {
	secure := h.cfg.Env == "prod"
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(
		h.refreshCookieName(),
		"",
		-1,
		"/auth",
		"",
		secure,
		true,
	)
}
