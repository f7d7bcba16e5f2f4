// Package service holds the application operations. Every operation takes
// the caller's access.Identity explicitly and talks to storage through the
// interfaces below; Postgres and the in-memory store both satisfy them.
package service

import (
	"context"

	"github.com/geocoder89/learnhub/internal/access"
	"github.com/geocoder89/learnhub/internal/domain/admin"
	"github.com/geocoder89/learnhub/internal/domain/course"
	"github.com/geocoder89/learnhub/internal/domain/enrollment"
	"github.com/geocoder89/learnhub/internal/domain/lesson"
	"github.com/geocoder89/learnhub/internal/domain/session"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/geocoder89/learnhub/internal/utils"
)

type UserStore interface {
	CreateUser(ctx context.Context, u user.User) error
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	GetUserByID(ctx context.Context, id string) (user.User, error)
	ListUsersWithCounts(ctx context.Context) ([]admin.UserSummary, error)
	GetUserDetail(ctx context.Context, id string) (admin.UserDetail, error)
	UpdateUserRole(ctx context.Context, id string, role access.Role) (user.User, error)
	// DeleteUser removes enrollments then the user atomically, refusing
	// users who still own courses.
	DeleteUser(ctx context.Context, id string) error
}

type CourseStore interface {
	CreateCourse(ctx context.Context, c course.Course) error
	GetCourse(ctx context.Context, id string) (course.Course, error)
	GetCourseDetail(ctx context.Context, id string) (course.Detail, error)
	ListCourses(ctx context.Context, limit int, after utils.CourseCursor) ([]course.Summary, error)
	UpdateCourse(ctx context.Context, id string, req course.UpdateCourseRequest) (course.Course, error)
	DeleteCourse(ctx context.Context, id string) error
}

type LessonStore interface {
	CreateLesson(ctx context.Context, l lesson.Lesson) error
	GetLesson(ctx context.Context, id string) (lesson.Detail, error)
	ListLessons(ctx context.Context, courseID string) ([]lesson.Lesson, error)
	UpdateLesson(ctx context.Context, id string, req lesson.UpdateLessonRequest) (lesson.Lesson, error)
	SetLessonVideo(ctx context.Context, id string, videoURL *string) (lesson.Lesson, error)
	DeleteLesson(ctx context.Context, id string) error
}

type EnrollmentStore interface {
	// CreateEnrollment reports enrollment.ErrAlreadyEnrolled from the
	// (user, course) uniqueness guard and course.ErrNotFound for a missing course.
	CreateEnrollment(ctx context.Context, e enrollment.Enrollment) error
	GetEnrollment(ctx context.Context, id string) (enrollment.Enrollment, error)
	GetEnrollmentView(ctx context.Context, id string) (enrollment.View, error)
	ListEnrollmentViews(ctx context.Context, userID string) ([]enrollment.View, error)
	UpdateProgress(ctx context.Context, id string, progress int) (enrollment.Enrollment, error)
	DeleteEnrollment(ctx context.Context, id string) error
}

type StatsStore interface {
	Statistics(ctx context.Context) (admin.Statistics, error)
	CourseStats(ctx context.Context) ([]admin.CourseStat, error)
}

type RefreshTokenStore interface {
	CreateRefreshToken(ctx context.Context, t session.RefreshToken) error
	RotateRefreshToken(ctx context.Context, oldID, presentedHash string, next session.RefreshToken) error
	RevokeRefreshToken(ctx context.Context, id string) error
}

// requireID turns ids that cannot exist into the resource's NotFound before
// they reach the store.
func requireID(id string, notFound error) error {
	if !utils.IsUUID(id) {
		return notFound
	}
	return nil
}
