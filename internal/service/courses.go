package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/geocoder89/learnhub/internal/access"
	"github.com/geocoder89/learnhub/internal/apperr"
	"github.com/geocoder89/learnhub/internal/domain/course"
	"github.com/geocoder89/learnhub/internal/domain/lesson"
	"github.com/geocoder89/learnhub/internal/utils"
)

// CourseService covers courses and their lessons. Mutations require the
// caller to be the course instructor or an ADMIN while ownership is enforced.
type CourseService struct {
	courses          CourseStore
	lessons          LessonStore
	enforceOwnership bool
}

func NewCourseService(courses CourseStore, lessons LessonStore, enforceOwnership bool) *CourseService {
	return &CourseService{courses: courses, lessons: lessons, enforceOwnership: enforceOwnership}
}

// CreateCourse is open to any signed-in caller, who becomes the instructor.
func (s *CourseService) CreateCourse(ctx context.Context, id access.Identity, req course.CreateCourseRequest) (course.Course, error) {
	if err := access.RequireIdentity(id); err != nil {
		return course.Course{}, err
	}
	if err := req.Validate(); err != nil {
		return course.Course{}, err
	}

	c := course.NewFromCreateRequest(req, id.UserID)
	if err := s.courses.CreateCourse(ctx, c); err != nil {
		return course.Course{}, err
	}

	slog.Default().InfoContext(ctx, "course.created", "course_id", c.ID)
	return c, nil
}

// ListCourses pages through courses newest first. An empty cursor starts at
// the top; limit is clamped to [1, MaxPageSize].
func (s *CourseService) ListCourses(ctx context.Context, limit int, cursor string) (course.Page, error) {
	if limit <= 0 {
		limit = course.DefaultPageSize
	}
	if limit > course.MaxPageSize {
		limit = course.MaxPageSize
	}

	after := utils.FirstCourseCursor()
	if cursor != "" {
		decoded, err := utils.DecodeCourseCursor(cursor)
		if err != nil {
			return course.Page{}, apperr.Validation("invalid cursor")
		}
		after = decoded
	}

	// one extra row tells us whether another page exists
	items, err := s.courses.ListCourses(ctx, limit+1, after)
	if err != nil {
		return course.Page{}, err
	}

	page := course.Page{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.HasMore = true

		last := page.Items[limit-1]
		page.NextCursor, err = utils.EncodeCourseCursor(last.CreatedAt, last.ID)
		if err != nil {
			return course.Page{}, err
		}
	}
	return page, nil
}

func (s *CourseService) GetCourse(ctx context.Context, courseID string) (course.Detail, error) {
	if err := requireID(courseID, course.ErrNotFound); err != nil {
		return course.Detail{}, err
	}
	return s.courses.GetCourseDetail(ctx, courseID)
}

// authorizeCourse loads the course and checks the caller may manage it.
func (s *CourseService) authorizeCourse(ctx context.Context, id access.Identity, courseID string) (course.Course, error) {
	if err := access.RequireIdentity(id); err != nil {
		return course.Course{}, err
	}
	if err := requireID(courseID, course.ErrNotFound); err != nil {
		return course.Course{}, err
	}

	c, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return course.Course{}, err
	}

	if s.enforceOwnership && !access.CanManage(id, c.InstructorID) {
		return course.Course{}, course.ErrNotOwner
	}
	return c, nil
}

func (s *CourseService) UpdateCourse(ctx context.Context, id access.Identity, courseID string, req course.UpdateCourseRequest) (course.Course, error) {
	if err := access.RequireIdentity(id); err != nil {
		return course.Course{}, err
	}
	if err := req.Validate(); err != nil {
		return course.Course{}, err
	}
	if _, err := s.authorizeCourse(ctx, id, courseID); err != nil {
		return course.Course{}, err
	}

	req.Title = strings.TrimSpace(req.Title)
	return s.courses.UpdateCourse(ctx, courseID, req)
}

// DeleteCourse removes the course together with its lessons and enrollments.
func (s *CourseService) DeleteCourse(ctx context.Context, id access.Identity, courseID string) error {
	if _, err := s.authorizeCourse(ctx, id, courseID); err != nil {
		return err
	}

	if err := s.courses.DeleteCourse(ctx, courseID); err != nil {
		return err
	}

	slog.Default().InfoContext(ctx, "course.deleted", "course_id", courseID)
	return nil
}

func (s *CourseService) ListLessons(ctx context.Context, courseID string) ([]lesson.Lesson, error) {
	if err := requireID(courseID, course.ErrNotFound); err != nil {
		return nil, err
	}
	return s.lessons.ListLessons(ctx, courseID)
}

func (s *CourseService) GetLesson(ctx context.Context, lessonID string) (lesson.Detail, error) {
	if err := requireID(lessonID, lesson.ErrNotFound); err != nil {
		return lesson.Detail{}, err
	}
	return s.lessons.GetLesson(ctx, lessonID)
}

func (s *CourseService) CreateLesson(ctx context.Context, id access.Identity, courseID string, req lesson.CreateLessonRequest) (lesson.Lesson, error) {
	if err := access.RequireIdentity(id); err != nil {
		return lesson.Lesson{}, err
	}
	if err := req.Validate(); err != nil {
		return lesson.Lesson{}, err
	}
	if _, err := s.authorizeCourse(ctx, id, courseID); err != nil {
		return lesson.Lesson{}, err
	}

	l := lesson.NewFromCreateRequest(courseID, req)
	if err := s.lessons.CreateLesson(ctx, l); err != nil {
		return lesson.Lesson{}, err
	}
	return l, nil
}

// authorizeLesson resolves the lesson's parent course and applies the same
// ownership rule as course mutations.
func (s *CourseService) authorizeLesson(ctx context.Context, id access.Identity, lessonID string) (lesson.Detail, error) {
	if err := access.RequireIdentity(id); err != nil {
		return lesson.Detail{}, err
	}
	if err := requireID(lessonID, lesson.ErrNotFound); err != nil {
		return lesson.Detail{}, err
	}

	d, err := s.lessons.GetLesson(ctx, lessonID)
	if err != nil {
		return lesson.Detail{}, err
	}

	if s.enforceOwnership && !access.CanManage(id, d.Course.InstructorID) {
		return lesson.Detail{}, course.ErrNotOwner
	}
	return d, nil
}

func (s *CourseService) UpdateLesson(ctx context.Context, id access.Identity, lessonID string, req lesson.UpdateLessonRequest) (lesson.Lesson, error) {
	if err := access.RequireIdentity(id); err != nil {
		return lesson.Lesson{}, err
	}
	if err := req.Validate(); err != nil {
		return lesson.Lesson{}, err
	}
	if _, err := s.authorizeLesson(ctx, id, lessonID); err != nil {
		return lesson.Lesson{}, err
	}

	req.Title = strings.TrimSpace(req.Title)
	return s.lessons.UpdateLesson(ctx, lessonID, req)
}

// SetLessonVideo sets the video url, or clears it when videoURL is nil.
func (s *CourseService) SetLessonVideo(ctx context.Context, id access.Identity, lessonID string, videoURL *string) (lesson.Lesson, error) {
	if err := access.RequireIdentity(id); err != nil {
		return lesson.Lesson{}, err
	}
	if videoURL != nil {
		if err := lesson.ValidateVideoURL(*videoURL); err != nil {
			return lesson.Lesson{}, err
		}
	}
	if _, err := s.authorizeLesson(ctx, id, lessonID); err != nil {
		return lesson.Lesson{}, err
	}
	return s.lessons.SetLessonVideo(ctx, lessonID, videoURL)
}

func (s *CourseService) DeleteLesson(ctx context.Context, id access.Identity, lessonID string) error {
	if _, err := s.authorizeLesson(ctx, id, lessonID); err != nil {
		return err
	}
	return s.lessons.DeleteLesson(ctx, lessonID)
}
