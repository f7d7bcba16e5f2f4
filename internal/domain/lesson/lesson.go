package lesson

import (
	"net/url"
	"strings"
	"time"

	"github.com/geocoder89/learnhub/internal/apperr"
	"github.com/google/uuid"
)

type Lesson struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"courseId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	VideoURL  *string   `json:"videoUrl"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CourseRef is the parent course as embedded in a lesson detail.
type CourseRef struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	InstructorID string `json:"instructorId"`
}

type Detail struct {
	Lesson
	Course CourseRef `json:"course"`
}

var (
	ErrNotFound   = apperr.NotFound("Lesson not found")
	ErrOrderTaken = apperr.Conflict("lesson_order_taken", "Another lesson in this course already uses that order.")
)

type CreateLessonRequest struct {
	Title    string  `json:"title" binding:"required,max=200"`
	Content  string  `json:"content" binding:"required"`
	Order    int     `json:"order" binding:"required,min=1"`
	VideoURL *string `json:"videoUrl" binding:"omitempty,url"`
}

// UpdateLessonRequest replaces the text fields and order. The video url is
// only changed through SetVideoRequest.
type UpdateLessonRequest struct {
	Title   string `json:"title" binding:"required,max=200"`
	Content string `json:"content" binding:"required"`
	Order   int    `json:"order" binding:"required,min=1"`
}

type SetVideoRequest struct {
	VideoURL *string `json:"videoUrl"`
}

func (r CreateLessonRequest) Validate() error {
	if err := validateBody(r.Title, r.Content, r.Order); err != nil {
		return err
	}
	if r.VideoURL != nil {
		return ValidateVideoURL(*r.VideoURL)
	}
	return nil
}

func (r UpdateLessonRequest) Validate() error {
	return validateBody(r.Title, r.Content, r.Order)
}

func validateBody(title, content string, order int) error {
	if strings.TrimSpace(title) == "" {
		return apperr.Validation("title must not be empty")
	}
	if strings.TrimSpace(content) == "" {
		return apperr.Validation("content must not be empty")
	}
	if order < 1 {
		return apperr.Validation("order must be at least 1")
	}
	return nil
}

func ValidateVideoURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return apperr.Validation("videoUrl must be an absolute http(s) URL")
	}
	return nil
}

func NewFromCreateRequest(courseID string, req CreateLessonRequest) Lesson {
	now := time.Now().UTC()

	return Lesson{
		ID:        uuid.NewString(),
		CourseID:  courseID,
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		VideoURL:  req.VideoURL,
		Order:     req.Order,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
