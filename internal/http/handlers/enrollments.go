package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/learnhub/internal/access"
	"github.com/geocoder89/learnhub/internal/domain/enrollment"
	"github.com/geocoder89/learnhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type EnrollmentManager interface {
	Enroll(ctx context.Context, id access.Identity, courseID string) (enrollment.View, error)
	ListForUser(ctx context.Context, id access.Identity) ([]enrollment.View, error)
	UpdateProgress(ctx context.Context, id access.Identity, enrollmentID string, progress int) (enrollment.Enrollment, error)
	Remove(ctx context.Context, id access.Identity, enrollmentID string) error
}

type EnrollmentsHandler struct {
	svc EnrollmentManager
}

func NewEnrollmentsHandler(svc EnrollmentManager) *EnrollmentsHandler {
	return &EnrollmentsHandler{svc: svc}
}

func (h *EnrollmentsHandler) Create(ctx *gin.Context) {
	var req enrollment.CreateEnrollmentRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	view, err := h.svc.Enroll(cctx, middlewares.IdentityFrom(ctx), req.CourseID)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, view)
}

func (h *EnrollmentsHandler) ListMine(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	items, err := h.svc.ListForUser(cctx, middlewares.IdentityFrom(ctx))
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	if items == nil {
		items = []enrollment.View{}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// UpdateProgress serves both PATCH /enrollments/:id/progress and
// PATCH /enrollments/:id.
func (h *EnrollmentsHandler) UpdateProgress(ctx *gin.Context) {
	var req enrollment.UpdateProgressRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	e, err := h.svc.UpdateProgress(cctx, middlewares.IdentityFrom(ctx), ctx.Param("id"), *req.Progress)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, e)
}

func (h *EnrollmentsHandler) Delete(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	if err := h.svc.Remove(cctx, middlewares.IdentityFrom(ctx), ctx.Param("id")); err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
