package postgres

import (
	"context"
	"fmt"

	"github.com/geocoder89/learnhub/internal/access"
	"github.com/geocoder89/learnhub/internal/domain/admin"
	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsRepo serves the admin aggregates. Every call reads live counts.
type StatsRepo struct {
	repo
}

func NewStatsRepo(pool *pgxpool.Pool, prom *observability.Prom) *StatsRepo {
	return &StatsRepo{repo{pool: pool, prom: prom}}
}

func (r *StatsRepo) Statistics(ctx context.Context) (admin.Statistics, error) {
	stats := admin.Statistics{UsersByRole: make(map[access.Role]int)}

	err := r.observe("stats.totals", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT
				(SELECT COUNT(*) FROM users),
				(SELECT COUNT(*) FROM courses),
				(SELECT COUNT(*) FROM enrollments)
		`).Scan(&stats.TotalUsers, &stats.TotalCourses, &stats.TotalEnrollments)
	})
	if err != nil {
		return admin.Statistics{}, fmt.Errorf("statistics: %w", err)
	}

	err = r.observe("stats.users_by_role", func() error {
		rows, err := r.pool.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var role string
			var n int
			if err := rows.Scan(&role, &n); err != nil {
				return err
			}
			stats.UsersByRole[access.Role(role)] = n
		}
		return rows.Err()
	})
	if err != nil {
		return admin.Statistics{}, fmt.Errorf("users by role: %w", err)
	}

	return stats, nil
}

// CourseStats lists every course with its enrollment and lesson counts, the
// most enrolled first.
func (r *StatsRepo) CourseStats(ctx context.Context) ([]admin.CourseStat, error) {
	out := make([]admin.CourseStat, 0)

	err := r.observe("stats.courses", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT c.id, c.title, u.name, u.email,
				(SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id) AS enrollment_count,
				(SELECT COUNT(*) FROM lessons l WHERE l.course_id = c.id) AS lesson_count
			FROM courses c
			JOIN users u ON u.id = c.instructor_id
			ORDER BY enrollment_count DESC, c.created_at DESC, c.id DESC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s admin.CourseStat
			err = rows.Scan(&s.ID, &s.Title, &s.Instructor.Name, &s.Instructor.Email, &s.EnrollmentCount, &s.LessonCount)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("course stats: %w", err)
	}
	return out, nil
}
