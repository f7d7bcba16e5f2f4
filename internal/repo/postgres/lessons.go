package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/learnhub/internal/domain/course"
	"github.com/geocoder89/learnhub/internal/domain/lesson"
	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	lessonsOrderConstraint = "lessons_course_order_uniq"
	lessonsCourseFKey      = "lessons_course_id_fkey"
	lessonColumns          = `id, course_id, title, content, video_url, sort_order, created_at, updated_at`
)

type LessonsRepo struct {
	repo
}

func NewLessonsRepo(pool *pgxpool.Pool, prom *observability.Prom) *LessonsRepo {
	return &LessonsRepo{repo{pool: pool, prom: prom}}
}

func scanLesson(row pgx.Row) (lesson.Lesson, error) {
	var l lesson.Lesson
	err := row.Scan(&l.ID, &l.CourseID, &l.Title, &l.Content, &l.VideoURL, &l.Order, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func lessonWriteErr(op string, err error) error {
	switch {
	case IsUniqueViolation(err, lessonsOrderConstraint):
		return lesson.ErrOrderTaken
	case IsForeignKeyViolation(err, lessonsCourseFKey):
		return course.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *LessonsRepo) CreateLesson(ctx context.Context, l lesson.Lesson) error {
	err := r.observe("lessons.create", func() error {
		_, e := r.pool.Exec(ctx, `
			INSERT INTO lessons (`+lessonColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, l.ID, l.CourseID, l.Title, l.Content, l.VideoURL, l.Order, l.CreatedAt, l.UpdatedAt)
		return e
	})

	if err != nil {
		return lessonWriteErr("create lesson", err)
	}
	return nil
}

// ListLessons returns the lessons of a course by ascending order. A missing
// course is NotFound rather than an empty list.
func (r *LessonsRepo) ListLessons(ctx context.Context, courseID string) ([]lesson.Lesson, error) {
	var exists bool

	err := r.observe("lessons.list.course_exists", func() error {
		return r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM courses WHERE id = $1)`, courseID).Scan(&exists)
	})
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}

	if !exists {
		return nil, course.ErrNotFound
	}

	return listLessons(ctx, r.repo, courseID)
}

func (r *LessonsRepo) GetLesson(ctx context.Context, id string) (lesson.Detail, error) {
	var d lesson.Detail

	err := r.observe("lessons.get", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT l.id, l.course_id, l.title, l.content, l.video_url, l.sort_order, l.created_at, l.updated_at,
				c.id, c.title, c.description, c.instructor_id
			FROM lessons l
			JOIN courses c ON c.id = l.course_id
			WHERE l.id = $1
		`, id).Scan(
			&d.ID, &d.CourseID, &d.Title, &d.Content, &d.VideoURL, &d.Order, &d.CreatedAt, &d.UpdatedAt,
			&d.Course.ID, &d.Course.Title, &d.Course.Description, &d.Course.InstructorID,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return lesson.Detail{}, lesson.ErrNotFound
		}
		return lesson.Detail{}, fmt.Errorf("get lesson: %w", err)
	}
	return d, nil
}

func (r *LessonsRepo) UpdateLesson(ctx context.Context, id string, req lesson.UpdateLessonRequest) (lesson.Lesson, error) {
	var l lesson.Lesson

	err := r.observe("lessons.update", func() error {
		var e error
		l, e = scanLesson(r.pool.QueryRow(ctx, `
			UPDATE lessons
			SET title = $2,
				content = $3,
				sort_order = $4,
				updated_at = NOW()
			WHERE id = $1
			RETURNING `+lessonColumns,
			id, req.Title, req.Content, req.Order,
		))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return lesson.Lesson{}, lesson.ErrNotFound
		}
		return lesson.Lesson{}, lessonWriteErr("update lesson", err)
	}
	return l, nil
}

// SetLessonVideo sets or, with nil, clears the video url.
func (r *LessonsRepo) SetLessonVideo(ctx context.Context, id string, videoURL *string) (lesson.Lesson, error) {
	var l lesson.Lesson

	err := r.observe("lessons.set_video", func() error {
		var e error
		l, e = scanLesson(r.pool.QueryRow(ctx, `
			UPDATE lessons
			SET video_url = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING `+lessonColumns,
			id, videoURL,
		))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return lesson.Lesson{}, lesson.ErrNotFound
		}
		return lesson.Lesson{}, fmt.Errorf("set lesson video: %w", err)
	}
	return l, nil
}

func (r *LessonsRepo) DeleteLesson(ctx context.Context, id string) error {
	var affected int64

	err := r.observe("lessons.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return e
	})

	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}

	if affected == 0 {
		return lesson.ErrNotFound
	}
	return nil
}
