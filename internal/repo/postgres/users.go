package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/learnhub/internal/access"
	"github.com/geocoder89/learnhub/internal/domain/admin"
	"github.com/geocoder89/learnhub/internal/domain/course"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	usersEmailConstraint  = "users_email_uniq"
	coursesInstructorFKey = "courses_instructor_id_fkey"
	userColumns           = `id, email, password_hash, name, role, created_at, updated_at`
)

type UsersRepo struct {
	repo
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{repo{pool: pool, prom: prom}}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var role string

	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}
	u.Role = access.Role(role)

	return u, nil
}

func (r *UsersRepo) CreateUser(ctx context.Context, u user.User) error {
	err := r.observe("users.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO users (`+userColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			u.ID, u.Email, u.PasswordHash, u.Name, string(u.Role), u.CreatedAt, u.UpdatedAt,
		)
		return e
	})

	if err != nil {
		if IsUniqueViolation(err, usersEmailConstraint) {
			return user.ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *UsersRepo) getUser(ctx context.Context, op, where string, arg string) (user.User, error) {
	var u user.User

	err := r.observe(op, func() error {
		var e error
		u, e = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getUser(ctx, "users.get_by_email", "email = $1", email)
}

func (r *UsersRepo) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return r.getUser(ctx, "users.get_by_id", "id = $1", id)
}

// ListUsersWithCounts returns every user, newest first, with owned-course and
// enrollment counts.
func (r *UsersRepo) ListUsersWithCounts(ctx context.Context) ([]admin.UserSummary, error) {
	out := make([]admin.UserSummary, 0)

	err := r.observe("users.list_with_counts", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT u.id, u.email, u.password_hash, u.name, u.role, u.created_at, u.updated_at,
				(SELECT COUNT(*) FROM courses c WHERE c.instructor_id = u.id) AS course_count,
				(SELECT COUNT(*) FROM enrollments e WHERE e.user_id = u.id) AS enrollment_count
			FROM users u
			ORDER BY u.created_at DESC, u.id DESC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s admin.UserSummary
			var role string

			err = rows.Scan(
				&s.ID, &s.Email, &s.PasswordHash, &s.Name, &role, &s.CreatedAt, &s.UpdatedAt,
				&s.CourseCount, &s.EnrollmentCount,
			)
			if err != nil {
				return err
			}
			s.Role = access.Role(role)
			out = append(out, s)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// GetUserDetail returns a user with their enrollments, newest first.
func (r *UsersRepo) GetUserDetail(ctx context.Context, id string) (admin.UserDetail, error) {
	u, err := r.GetUserByID(ctx, id)
	if err != nil {
		return admin.UserDetail{}, err
	}

	detail := admin.UserDetail{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
		Enrollments: make([]admin.UserEnrollment, 0),
	}

	err = r.observe("users.detail_enrollments", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT e.id, e.progress, e.enrolled_at,
				c.id, c.title, c.description, c.instructor_id, c.created_at, c.updated_at
			FROM enrollments e
			JOIN courses c ON c.id = e.course_id
			WHERE e.user_id = $1
			ORDER BY e.enrolled_at DESC, e.id DESC
		`, id)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var ue admin.UserEnrollment
			var c course.Course

			err = rows.Scan(
				&ue.ID, &ue.Progress, &ue.EnrolledAt,
				&c.ID, &c.Title, &c.Description, &c.InstructorID, &c.CreatedAt, &c.UpdatedAt,
			)
			if err != nil {
				return err
			}
			ue.Course = c
			detail.Enrollments = append(detail.Enrollments, ue)
		}
		return rows.Err()
	})

	if err != nil {
		return admin.UserDetail{}, fmt.Errorf("user detail: %w", err)
	}
	return detail, nil
}

func (r *UsersRepo) UpdateUserRole(ctx context.Context, id string, role access.Role) (user.User, error) {
	var u user.User

	err := r.observe("users.update_role", func() error {
		var e error
		u, e = scanUser(r.pool.QueryRow(ctx, `
			UPDATE users
			SET role = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING `+userColumns,
			id, string(role),
		))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("update role: %w", err)
	}
	return u, nil
}

// DeleteUser removes the user's enrollments and then the user in one
// transaction. Users who still own courses are refused.
func (r *UsersRepo) DeleteUser(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var owned int

		err := r.observe("users.delete.lock", func() error {
			return tx.QueryRow(ctx, `
				SELECT (SELECT COUNT(*) FROM courses WHERE instructor_id = u.id)
				FROM users u
				WHERE u.id = $1
				FOR UPDATE
			`, id).Scan(&owned)
		})

		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return user.ErrNotFound
			}
			return fmt.Errorf("delete user: %w", err)
		}

		if owned > 0 {
			return user.ErrOwnsCourses
		}

		err = r.observe("users.delete.enrollments", func() error {
			_, e := tx.Exec(ctx, `DELETE FROM enrollments WHERE user_id = $1`, id)
			return e
		})
		if err != nil {
			return fmt.Errorf("delete user enrollments: %w", err)
		}

		err = r.observe("users.delete.user", func() error {
			_, e := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
			return e
		})
		if err != nil {
			// a course created concurrently after the count
			if IsForeignKeyViolation(err, coursesInstructorFKey) {
				return user.ErrOwnsCourses
			}
			return fmt.Errorf("delete user: %w", err)
		}

		return nil
	})
}
