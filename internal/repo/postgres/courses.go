package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/learnhub/internal/access"
	"github.com/geocoder89/learnhub/internal/domain/course"
	"github.com/geocoder89/learnhub/internal/domain/lesson"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/geocoder89/learnhub/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const courseColumns = `c.id, c.title, c.description, c.instructor_id, c.created_at, c.updated_at`

type CoursesRepo struct {
	repo
}

func NewCoursesRepo(pool *pgxpool.Pool, prom *observability.Prom) *CoursesRepo {
	return &CoursesRepo{repo{pool: pool, prom: prom}}
}

func (r *CoursesRepo) CreateCourse(ctx context.Context, c course.Course) error {
	err := r.observe("courses.create", func() error {
		_, e := r.pool.Exec(ctx, `
			INSERT INTO courses (id, title, description, instructor_id, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, c.ID, c.Title, c.Description, c.InstructorID, c.CreatedAt, c.UpdatedAt)
		return e
	})

	if err != nil {
		// the token outlived its user
		if IsForeignKeyViolation(err, coursesInstructorFKey) {
			return user.ErrNotFound
		}
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

func (r *CoursesRepo) GetCourse(ctx context.Context, id string) (course.Course, error) {
	var c course.Course

	err := r.observe("courses.get", func() error {
		return r.pool.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses c WHERE c.id = $1`, id).
			Scan(&c.ID, &c.Title, &c.Description, &c.InstructorID, &c.CreatedAt, &c.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, fmt.Errorf("get course: %w", err)
	}
	return c, nil
}

// ListCourses returns up to limit courses strictly after the cursor in
// (created_at desc, id desc) order.
func (r *CoursesRepo) ListCourses(ctx context.Context, limit int, after utils.CourseCursor) ([]course.Summary, error) {
	out := make([]course.Summary, 0, limit)

	err := r.observe("courses.list", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT `+courseColumns+`,
				u.id, u.name, u.email, u.role,
				(SELECT COUNT(*) FROM lessons l WHERE l.course_id = c.id) AS lesson_count,
				(SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id) AS enrollment_count
			FROM courses c
			JOIN users u ON u.id = c.instructor_id
			WHERE (c.created_at, c.id) < ($1, $2::uuid)
			ORDER BY c.created_at DESC, c.id DESC
			LIMIT $3
		`, after.CreatedAt, after.ID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s course.Summary
			var role string

			err = rows.Scan(
				&s.ID, &s.Title, &s.Description, &s.InstructorID, &s.CreatedAt, &s.UpdatedAt,
				&s.Instructor.ID, &s.Instructor.Name, &s.Instructor.Email, &role,
				&s.LessonCount, &s.EnrollmentCount,
			)
			if err != nil {
				return err
			}
			s.Instructor.Role = access.Role(role)
			out = append(out, s)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return out, nil
}

// GetCourseDetail loads a course with its instructor, ordered lessons and
// enrolled users.
func (r *CoursesRepo) GetCourseDetail(ctx context.Context, id string) (course.Detail, error) {
	var d course.Detail
	var role string

	err := r.observe("courses.detail", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT `+courseColumns+`, u.id, u.name, u.email, u.role
			FROM courses c
			JOIN users u ON u.id = c.instructor_id
			WHERE c.id = $1
		`, id).Scan(
			&d.ID, &d.Title, &d.Description, &d.InstructorID, &d.CreatedAt, &d.UpdatedAt,
			&d.Instructor.ID, &d.Instructor.Name, &d.Instructor.Email, &role,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return course.Detail{}, course.ErrNotFound
		}
		return course.Detail{}, fmt.Errorf("course detail: %w", err)
	}
	d.Instructor.Role = access.Role(role)

	d.Lessons, err = listLessons(ctx, r.repo, id)
	if err != nil {
		return course.Detail{}, err
	}

	d.Enrollments = make([]course.EnrolledUser, 0)

	err = r.observe("courses.detail_enrollments", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT e.id, e.progress, e.enrolled_at, u.id, u.name, u.email, u.role
			FROM enrollments e
			JOIN users u ON u.id = e.user_id
			WHERE e.course_id = $1
			ORDER BY e.enrolled_at ASC, e.id ASC
		`, id)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var eu course.EnrolledUser
			var userRole string

			err = rows.Scan(&eu.EnrollmentID, &eu.Progress, &eu.EnrolledAt, &eu.User.ID, &eu.User.Name, &eu.User.Email, &userRole)
			if err != nil {
				return err
			}
			eu.User.Role = access.Role(userRole)
			d.Enrollments = append(d.Enrollments, eu)
		}
		return rows.Err()
	})

	if err != nil {
		return course.Detail{}, fmt.Errorf("course detail enrollments: %w", err)
	}
	return d, nil
}

func (r *CoursesRepo) UpdateCourse(ctx context.Context, id string, req course.UpdateCourseRequest) (course.Course, error) {
	var c course.Course

	err := r.observe("courses.update", func() error {
		return r.pool.QueryRow(ctx, `
			UPDATE courses
			SET title = $2,
				description = $3,
				updated_at = NOW()
			WHERE id = $1
			RETURNING id, title, description, instructor_id, created_at, updated_at
		`, id, req.Title, req.Description).
			Scan(&c.ID, &c.Title, &c.Description, &c.InstructorID, &c.CreatedAt, &c.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, fmt.Errorf("update course: %w", err)
	}
	return c, nil
}

// DeleteCourse removes the course; lessons and enrollments go with it via
// ON DELETE CASCADE.
func (r *CoursesRepo) DeleteCourse(ctx context.Context, id string) error {
	var affected int64

	err := r.observe("courses.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return e
	})

	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}

	if affected == 0 {
		return course.ErrNotFound
	}
	return nil
}

func listLessons(ctx context.Context, r repo, courseID string) ([]lesson.Lesson, error) {
	out := make([]lesson.Lesson, 0)

	err := r.observe("lessons.list", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT `+lessonColumns+`
			FROM lessons
			WHERE course_id = $1
			ORDER BY sort_order ASC
		`, courseID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			l, err := scanLesson(rows)
			if err != nil {
				return err
			}
			out = append(out, l)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return out, nil
}
