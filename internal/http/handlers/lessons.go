package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/learnhub/internal/access"
	"github.com/geocoder89/learnhub/internal/domain/lesson"
	"github.com/geocoder89/learnhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type LessonManager interface {
	ListLessons(ctx context.Context, courseID string) ([]lesson.Lesson, error)
	GetLesson(ctx context.Context, lessonID string) (lesson.Detail, error)
	CreateLesson(ctx context.Context, id access.Identity, courseID string, req lesson.CreateLessonRequest) (lesson.Lesson, error)
	UpdateLesson(ctx context.Context, id access.Identity, lessonID string, req lesson.UpdateLessonRequest) (lesson.Lesson, error)
	SetLessonVideo(ctx context.Context, id access.Identity, lessonID string, videoURL *string) (lesson.Lesson, error)
	DeleteLesson(ctx context.Context, id access.Identity, lessonID string) error
}

type LessonsHandler struct {
	svc LessonManager
}

func NewLessonsHandler(svc LessonManager) *LessonsHandler {
	return &LessonsHandler{svc: svc}
}

// GET /lessons/:courseId
func (h *LessonsHandler) ListByCourse(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	items, err := h.svc.ListLessons(cctx, ctx.Param("courseId"))
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	if items == nil {
		items = []lesson.Lesson{}
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// GET /lessons/detail/:id
func (h *LessonsHandler) Get(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	detail, err := h.svc.GetLesson(cctx, ctx.Param("id"))
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, detail)
}

// POST /lessons/:courseId
func (h *LessonsHandler) Create(ctx *gin.Context) {
	var req lesson.CreateLessonRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	l, err := h.svc.CreateLesson(cctx, middlewares.IdentityFrom(ctx), ctx.Param("courseId"), req)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, l)
}

func (h *LessonsHandler) Update(ctx *gin.Context) {
	var req lesson.UpdateLessonRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	l, err := h.svc.UpdateLesson(cctx, middlewares.IdentityFrom(ctx), ctx.Param("id"), req)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, l)
}

// PATCH /lessons/:id/video, a null videoUrl clears it.
func (h *LessonsHandler) SetVideo(ctx *gin.Context) {
	var req lesson.SetVideoRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	l, err := h.svc.SetLessonVideo(cctx, middlewares.IdentityFrom(ctx), ctx.Param("id"), req.VideoURL)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, l)
}

func (h *LessonsHandler) Delete(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	if err := h.svc.DeleteLesson(cctx, middlewares.IdentityFrom(ctx), ctx.Param("id")); err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
