package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/learnhub/internal/access"
	"github.com/geocoder89/learnhub/internal/domain/admin"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/geocoder89/learnhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type AdminOps interface {
	Statistics(ctx context.Context, id access.Identity) (admin.Statistics, error)
	CourseStats(ctx context.Context, id access.Identity) ([]admin.CourseStat, error)
	ListUsers(ctx context.Context, id access.Identity) ([]admin.UserSummary, error)
	GetUser(ctx context.Context, id access.Identity, userID string) (admin.UserDetail, error)
	UpdateUserRole(ctx context.Context, id access.Identity, userID, role string) (user.User, error)
	DeleteUser(ctx context.Context, id access.Identity, userID string) error
}

// AdminHandler relies on the service for role checks; the router's
// RequireRoles gates are a first line only.
type AdminHandler struct {
	svc AdminOps
}

func NewAdminHandler(svc AdminOps) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) Statistics(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	stats, err := h.svc.Statistics(cctx, middlewares.IdentityFrom(ctx))
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) CourseStats(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	items, err := h.svc.CourseStats(cctx, middlewares.IdentityFrom(ctx))
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	if items == nil {
		items = []admin.CourseStat{}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (h *AdminHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	items, err := h.svc.ListUsers(cctx, middlewares.IdentityFrom(ctx))
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	if items == nil {
		items = []admin.UserSummary{}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (h *AdminHandler) GetUser(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	detail, err := h.svc.GetUser(cctx, middlewares.IdentityFrom(ctx), ctx.Param("id"))
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, detail)
}

// PUT /admin/users/:id/role
func (h *AdminHandler) UpdateRole(ctx *gin.Context) {
	var req admin.UpdateRoleRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	u, err := h.svc.UpdateUserRole(cctx, middlewares.IdentityFrom(ctx), ctx.Param("id"), req.Role)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *AdminHandler) DeleteUser(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	if err := h.svc.DeleteUser(cctx, middlewares.IdentityFrom(ctx), ctx.Param("id")); err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
