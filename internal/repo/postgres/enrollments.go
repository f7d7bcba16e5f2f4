package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/learnhub/internal/access"
	"github.com/geocoder89/learnhub/internal/apperr"
	"github.com/geocoder89/learnhub/internal/domain/course"
	"github.com/geocoder89/learnhub/internal/domain/enrollment"
	"github.com/geocoder89/learnhub/internal/domain/lesson"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	enrollmentsUserCourseConstraint = "enrollments_user_course_uniq"
	enrollmentsCourseFKey           = "enrollments_course_id_fkey"
	enrollmentsUserFKey             = "enrollments_user_id_fkey"
	enrollmentColumns               = `id, user_id, course_id, progress, enrolled_at, updated_at`
)

type EnrollmentsRepo struct {
	repo
}

func NewEnrollmentsRepo(pool *pgxpool.Pool, prom *observability.Prom) *EnrollmentsRepo {
	return &EnrollmentsRepo{repo{pool: pool, prom: prom}}
}

func scanEnrollment(row pgx.Row) (enrollment.Enrollment, error) {
	var e enrollment.Enrollment
	err := row.Scan(&e.ID, &e.UserID, &e.CourseID, &e.Progress, &e.EnrolledAt, &e.UpdatedAt)
	return e, err
}

// CreateEnrollment inserts without a prior existence check: the unique
// constraint settles concurrent duplicates and the course FK reports a
// missing course.
func (r *EnrollmentsRepo) CreateEnrollment(ctx context.Context, e enrollment.Enrollment) error {
	err := r.observe("enrollments.create", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO enrollments (`+enrollmentColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, e.ID, e.UserID, e.CourseID, e.Progress, e.EnrolledAt, e.UpdatedAt)
		return err
	})

	if err != nil {
		switch {
		case IsUniqueViolation(err, enrollmentsUserCourseConstraint):
			return enrollment.ErrAlreadyEnrolled
		case IsForeignKeyViolation(err, enrollmentsCourseFKey):
			return course.ErrNotFound
		case IsForeignKeyViolation(err, enrollmentsUserFKey):
			return user.ErrNotFound
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

func (r *EnrollmentsRepo) GetEnrollment(ctx context.Context, id string) (enrollment.Enrollment, error) {
	var e enrollment.Enrollment

	err := r.observe("enrollments.get", func() error {
		var err error
		e, err = scanEnrollment(r.pool.QueryRow(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return enrollment.Enrollment{}, enrollment.ErrNotFound
		}
		return enrollment.Enrollment{}, fmt.Errorf("get enrollment: %w", err)
	}
	return e, nil
}

const enrollmentViewQuery = `
	SELECT e.id, e.user_id, e.course_id, e.progress, e.enrolled_at, e.updated_at,
		c.id, c.title, c.description, c.instructor_id, c.created_at, c.updated_at,
		u.id, u.name, u.email, u.role
	FROM enrollments e
	JOIN courses c ON c.id = e.course_id
	JOIN users u ON u.id = c.instructor_id
`

func scanEnrollmentView(row pgx.Row) (enrollment.View, error) {
	var v enrollment.View
	var role string

	err := row.Scan(
		&v.ID, &v.UserID, &v.CourseID, &v.Progress, &v.EnrolledAt, &v.UpdatedAt,
		&v.Course.ID, &v.Course.Title, &v.Course.Description, &v.Course.InstructorID, &v.Course.CreatedAt, &v.Course.UpdatedAt,
		&v.Instructor.ID, &v.Instructor.Name, &v.Instructor.Email, &role,
	)
	v.Instructor.Role = access.Role(role)
	v.Lessons = make([]lesson.Lesson, 0)

	return v, err
}

func (r *EnrollmentsRepo) GetEnrollmentView(ctx context.Context, id string) (enrollment.View, error) {
	var v enrollment.View

	err := r.observe("enrollments.view", func() error {
		var err error
		v, err = scanEnrollmentView(r.pool.QueryRow(ctx, enrollmentViewQuery+` WHERE e.id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return enrollment.View{}, enrollment.ErrNotFound
		}
		return enrollment.View{}, fmt.Errorf("enrollment view: %w", err)
	}

	v.Lessons, err = listLessons(ctx, r.repo, v.CourseID)
	if err != nil {
		return enrollment.View{}, err
	}
	return v, nil
}

// ListEnrollmentViews returns the user's enrollments by enrolled_at desc, id
// desc, each with its course lessons.
func (r *EnrollmentsRepo) ListEnrollmentViews(ctx context.Context, userID string) ([]enrollment.View, error) {
	views := make([]enrollment.View, 0)

	err := r.observe("enrollments.list_views", func() error {
		rows, err := r.pool.Query(ctx, enrollmentViewQuery+`
			WHERE e.user_id = $1
			ORDER BY e.enrolled_at DESC, e.id DESC
		`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			v, err := scanEnrollmentView(rows)
			if err != nil {
				return err
			}
			views = append(views, v)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}

	if len(views) == 0 {
		return views, nil
	}

	courseIDs := make([]string, 0, len(views))
	for _, v := range views {
		courseIDs = append(courseIDs, v.CourseID)
	}

	byCourse := make(map[string][]lesson.Lesson)

	err = r.observe("enrollments.list_views.lessons", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT `+lessonColumns+`
			FROM lessons
			WHERE course_id = ANY($1::uuid[])
			ORDER BY course_id, sort_order ASC
		`, courseIDs)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			l, err := scanLesson(rows)
			if err != nil {
				return err
			}
			byCourse[l.CourseID] = append(byCourse[l.CourseID], l)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("list enrollment lessons: %w", err)
	}

	for i := range views {
		if ls, ok := byCourse[views[i].CourseID]; ok {
			views[i].Lessons = ls
		}
	}
	return views, nil
}

func (r *EnrollmentsRepo) UpdateProgress(ctx context.Context, id string, progress int) (enrollment.Enrollment, error) {
	var e enrollment.Enrollment

	err := r.observe("enrollments.update_progress", func() error {
		var err error
		e, err = scanEnrollment(r.pool.QueryRow(ctx, `
			UPDATE enrollments
			SET progress = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING `+enrollmentColumns,
			id, progress,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return enrollment.Enrollment{}, enrollment.ErrNotFound
		}
		if IsCheckViolation(err) {
			return enrollment.Enrollment{}, apperr.Validationf("progress must be between %d and %d, got %d", enrollment.MinProgress, enrollment.MaxProgress, progress)
		}
		return enrollment.Enrollment{}, fmt.Errorf("update progress: %w", err)
	}
	return e, nil
}

func (r *EnrollmentsRepo) DeleteEnrollment(ctx context.Context, id string) error {
	var affected int64

	err := r.observe("enrollments.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}

	if affected == 0 {
		return enrollment.ErrNotFound
	}
	return nil
}
