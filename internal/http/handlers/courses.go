package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/geocoder89/learnhub/internal/access"
	"github.com/geocoder89/learnhub/internal/domain/course"
	"github.com/geocoder89/learnhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type CourseManager interface {
	CreateCourse(ctx context.Context, id access.Identity, req course.CreateCourseRequest) (course.Course, error)
	ListCourses(ctx context.Context, limit int, cursor string) (course.Page, error)
	GetCourse(ctx context.Context, courseID string) (course.Detail, error)
	UpdateCourse(ctx context.Context, id access.Identity, courseID string, req course.UpdateCourseRequest) (course.Course, error)
	DeleteCourse(ctx context.Context, id access.Identity, courseID string) error
}

type CoursesHandler struct {
	svc CourseManager
}

func NewCoursesHandler(svc CourseManager) *CoursesHandler {
	return &CoursesHandler{svc: svc}
}

// GET /courses?limit=20&cursor=...
func (h *CoursesHandler) List(ctx *gin.Context) {
	limit := course.DefaultPageSize

	if s := ctx.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			RespondBadRequest(ctx, "limit must be a number", nil)
			return
		}
		limit = n
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	page, err := h.svc.ListCourses(cctx, limit, ctx.Query("cursor"))
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	if page.Items == nil {
		page.Items = []course.Summary{}
	}

	RespondJSONWithETag(ctx, http.StatusOK, page)
}

func (h *CoursesHandler) Get(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	detail, err := h.svc.GetCourse(cctx, ctx.Param("id"))
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, detail)
}

func (h *CoursesHandler) Create(ctx *gin.Context) {
	var req course.CreateCourseRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	c, err := h.svc.CreateCourse(cctx, middlewares.IdentityFrom(ctx), req)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, c)
}

func (h *CoursesHandler) Update(ctx *gin.Context) {
	var req course.UpdateCourseRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	c, err := h.svc.UpdateCourse(cctx, middlewares.IdentityFrom(ctx), ctx.Param("id"), req)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func (h *CoursesHandler) Delete(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	if err := h.svc.DeleteCourse(cctx, middlewares.IdentityFrom(ctx), ctx.Param("id")); err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
