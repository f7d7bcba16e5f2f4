package enrollment

import (
	"time"

	"github.com/geocoder89/learnhub/internal/apperr"
	"github.com/geocoder89/learnhub/internal/domain/course"
	"github.com/geocoder89/learnhub/internal/domain/lesson"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/google/uuid"
)

const (
	MinProgress = 0
	MaxProgress = 100
)

type Enrollment struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	CourseID   string    `json:"courseId"`
	Progress   int       `json:"progress"`
	EnrolledAt time.Time `json:"enrolledAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// View is an enrollment joined with what the learner needs to display it.
type View struct {
	Enrollment
	Course     course.Course   `json:"course"`
	Instructor user.Summary    `json:"instructor"`
	Lessons    []lesson.Lesson `json:"lessons"`
}

var ErrAlreadyEnrolled = apperr.Conflict("already_enrolled", "You are already enrolled in this course.")

var (
	ErrNotFound = apperr.NotFound("Enrollment not found")
	ErrNotOwner = apperr.Forbidden("You can only change your own enrollments")
)

type CreateEnrollmentRequest struct {
	CourseID string `json:"courseId" binding:"required,uuid"`
}

// Progress is a pointer so an explicit 0 passes the required check.
type UpdateProgressRequest struct {
	Progress *int `json:"progress" binding:"required"`
}

// ValidateProgress rejects values outside [0,100]; nothing is clamped.
func ValidateProgress(p int) error {
	if p < MinProgress || p > MaxProgress {
		return apperr.Validationf("progress must be between %d and %d, got %d", MinProgress, MaxProgress, p)
	}
	return nil
}

func New(userID, courseID string) Enrollment {
	now := time.Now().UTC()

	return Enrollment{
		ID:         uuid.NewString(),
		UserID:     userID,
		CourseID:   courseID,
		Progress:   MinProgress,
		EnrolledAt: now,
		UpdatedAt:  now,
	}
}
