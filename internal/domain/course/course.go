package course

import (
	"strings"
	"time"

	"github.com/geocoder89/learnhub/internal/apperr"
	"github.com/geocoder89/learnhub/internal/domain/lesson"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/google/uuid"
)

type Course struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	InstructorID string    `json:"instructorId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Summary is a row of the public course list.
type Summary struct {
	Course
	Instructor      user.Summary `json:"instructor"`
	LessonCount     int          `json:"lessonCount"`
	EnrollmentCount int          `json:"enrollmentCount"`
}

// EnrolledUser is one enrollment as seen from the course page.
type EnrolledUser struct {
	EnrollmentID string       `json:"enrollmentId"`
	Progress     int          `json:"progress"`
	EnrolledAt   time.Time    `json:"enrolledAt"`
	User         user.Summary `json:"user"`
}

type Detail struct {
	Course
	Instructor  user.Summary    `json:"instructor"`
	Lessons     []lesson.Lesson `json:"lessons"`
	Enrollments []EnrolledUser  `json:"enrollments"`
}

var (
	ErrNotFound = apperr.NotFound("Course not found")
	ErrNotOwner = apperr.Forbidden("You can only manage courses you teach")
)

type CreateCourseRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=200"`
	Description string `json:"description" binding:"omitempty,max=5000"`
}

// a full update payload, mirrors create.
type UpdateCourseRequest = CreateCourseRequest

func (r CreateCourseRequest) Validate() error {
	if len(strings.TrimSpace(r.Title)) < 3 {
		return apperr.Validation("title must be at least 3 characters")
	}
	return nil
}

func NewFromCreateRequest(req CreateCourseRequest, instructorID string) Course {
	now := time.Now().UTC()

	return Course{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		InstructorID: instructorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is one slice of the public course list. NextCursor is set only when
// more courses follow.
type Page struct {
	Items      []Summary `json:"items"`
	NextCursor string    `json:"nextCursor,omitempty"`
	HasMore    bool      `json:"hasMore"`
}
