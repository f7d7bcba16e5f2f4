package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/learnhub/internal/access"
	"github.com/geocoder89/learnhub/internal/domain/course"
	"github.com/geocoder89/learnhub/internal/domain/enrollment"
	"github.com/geocoder89/learnhub/internal/observability"
)

type EnrollmentService struct {
	store            EnrollmentStore
	prom             *observability.Prom
	enforceOwnership bool
}

func NewEnrollmentService(store EnrollmentStore, prom *observability.Prom, enforceOwnership bool) *EnrollmentService {
	return &EnrollmentService{store: store, prom: prom, enforceOwnership: enforceOwnership}
}

// Enroll inserts a fresh enrollment at progress 0. Duplicates are rejected by
// the store's uniqueness guard, not by a lookup beforehand.
func (s *EnrollmentService) Enroll(ctx context.Context, id access.Identity, courseID string) (enrollment.View, error) {
	if err := access.RequireIdentity(id); err != nil {
		return enrollment.View{}, err
	}
	if err := requireID(courseID, course.ErrNotFound); err != nil {
		s.prom.ObserveEnroll("course_not_found")
		return enrollment.View{}, err
	}

	e := enrollment.New(id.UserID, courseID)

	if err := s.store.CreateEnrollment(ctx, e); err != nil {
		switch {
		case errors.Is(err, enrollment.ErrAlreadyEnrolled):
			s.prom.ObserveEnroll("already_enrolled")
		case errors.Is(err, course.ErrNotFound):
			s.prom.ObserveEnroll("course_not_found")
		default:
			s.prom.ObserveEnroll("error")
		}
		return enrollment.View{}, err
	}
	s.prom.ObserveEnroll("created")

	slog.Default().InfoContext(ctx, "enrollment.created",
		"enrollment_id", e.ID,
		"course_id", courseID,
	)

	return s.store.GetEnrollmentView(ctx, e.ID)
}

func (s *EnrollmentService) ListForUser(ctx context.Context, id access.Identity) ([]enrollment.View, error) {
	if err := access.RequireIdentity(id); err != nil {
		return nil, err
	}
	return s.store.ListEnrollmentViews(ctx, id.UserID)
}

// loadOwned fetches an enrollment the caller is allowed to change.
func (s *EnrollmentService) loadOwned(ctx context.Context, id access.Identity, enrollmentID string) (enrollment.Enrollment, error) {
	if err := requireID(enrollmentID, enrollment.ErrNotFound); err != nil {
		return enrollment.Enrollment{}, err
	}

	e, err := s.store.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return enrollment.Enrollment{}, err
	}

	if s.enforceOwnership && !access.CanManage(id, e.UserID) {
		return enrollment.Enrollment{}, enrollment.ErrNotOwner
	}
	return e, nil
}

// UpdateProgress stores an absolute progress value. Out-of-range values are
// rejected before anything is read or written.
func (s *EnrollmentService) UpdateProgress(ctx context.Context, id access.Identity, enrollmentID string, progress int) (enrollment.Enrollment, error) {
	if err := access.RequireIdentity(id); err != nil {
		return enrollment.Enrollment{}, err
	}
	if err := enrollment.ValidateProgress(progress); err != nil {
		return enrollment.Enrollment{}, err
	}

	if _, err := s.loadOwned(ctx, id, enrollmentID); err != nil {
		return enrollment.Enrollment{}, err
	}

	updated, err := s.store.UpdateProgress(ctx, enrollmentID, progress)
	if err != nil {
		return enrollment.Enrollment{}, err
	}

	slog.Default().DebugContext(ctx, "enrollment.progress",
		"enrollment_id", enrollmentID,
		"progress", progress,
	)
	return updated, nil
}

func (s *EnrollmentService) Remove(ctx context.Context, id access.Identity, enrollmentID string) error {
	if err := access.RequireIdentity(id); err != nil {
		return err
	}

	e, err := s.loadOwned(ctx, id, enrollmentID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteEnrollment(ctx, enrollmentID); err != nil {
		return err
	}

	slog.Default().InfoContext(ctx, "enrollment.removed",
		"enrollment_id", enrollmentID,
		"course_id", e.CourseID,
	)
	return nil
}
