package service

import (
	"context"
	"testing"
	"time"

	"github.com/geocoder89/learnhub/internal/access"
	"github.com/geocoder89/learnhub/internal/auth"
	"github.com/geocoder89/learnhub/internal/domain/course"
	"github.com/geocoder89/learnhub/internal/domain/lesson"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/geocoder89/learnhub/internal/repo/memory"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store       *memory.Store
	courses     *CourseService
	enrollments *EnrollmentService
	admin       *AdminService
	auth        *AuthService
}

func newFixture(t *testing.T, enforceOwnership bool) *fixture {
	t.Helper()
	s := memory.NewStore()
	jwt := auth.NewManager("test-secret-key", 15*time.Minute, time.Hour)

	return &fixture{
		store:       s,
		courses:     NewCourseService(s, s, enforceOwnership),
		enrollments: NewEnrollmentService(s, nil, enforceOwnership),
		admin:       NewAdminService(s, s),
		auth:        NewAuthService(s, s, jwt),
	}
}

func (f *fixture) user(t *testing.T, email string, role access.Role) access.Identity {
	t.Helper()
	u := user.New(email, "hash", email, role)
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return access.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func (f *fixture) course(t *testing.T, owner access.Identity, title string) course.Course {
	t.Helper()
	c, err := f.courses.CreateCourse(context.Background(), owner, course.CreateCourseRequest{Title: title})
	require.NoError(t, err)
	return c
}

func (f *fixture) lesson(t *testing.T, owner access.Identity, courseID string, order int) lesson.Lesson {
	t.Helper()
	l, err := f.courses.CreateLesson(context.Background(), owner, courseID, lesson.CreateLessonRequest{
		Title:   "Lesson",
		Content: "Content",
		Order:   order,
	})
	require.NoError(t, err)
	return l
}

func ptr[T any](v T) *T {
	return &v
}
