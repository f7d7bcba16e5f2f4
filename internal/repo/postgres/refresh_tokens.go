package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/learnhub/internal/domain/session"
	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RefreshTokensRepo struct {
	repo
}

func NewRefreshTokensRepo(pool *pgxpool.Pool, prom *observability.Prom) *RefreshTokensRepo {
	return &RefreshTokensRepo{repo{pool: pool, prom: prom}}
}

func insertRefreshToken(ctx context.Context, tx pgx.Tx, t session.RefreshToken) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked_at, replaced_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.RevokedAt, t.ReplacedBy, t.CreatedAt,
	)
	return err
}

func (r *RefreshTokensRepo) CreateRefreshToken(ctx context.Context, t session.RefreshToken) error {
	err := r.observe("refresh_tokens.create", func() error {
		return r.inTx(ctx, func(tx pgx.Tx) error {
			return insertRefreshToken(ctx, tx, t)
		})
	})
	if err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// Locks the row to prevent concurrent refresh races
func getForUpdate(ctx context.Context, tx pgx.Tx, id string) (session.RefreshToken, error) {
	var row session.RefreshToken

	err := tx.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, revoked_at, replaced_by, created_at
		FROM refresh_tokens
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(
		&row.ID,
		&row.UserID,
		&row.TokenHash,
		&row.ExpiresAt,
		&row.RevokedAt,
		&row.ReplacedBy,
		&row.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.RefreshToken{}, session.ErrInvalid
		}
		return session.RefreshToken{}, err
	}

	return row, nil
}

// RotateRefreshToken exchanges the token oldID (whose raw value hashes to
// presentedHash) for next: the old row is locked, checked, revoked and
// pointed at the new one.
func (r *RefreshTokensRepo) RotateRefreshToken(ctx context.Context, oldID, presentedHash string, next session.RefreshToken) error {
	return r.observe("refresh_tokens.rotate", func() error {
		return r.inTx(ctx, func(tx pgx.Tx) error {
			row, err := getForUpdate(ctx, tx, oldID)
			if err != nil {
				return err
			}

			if err := row.Usable(time.Now().UTC()); err != nil {
				return err
			}

			// verify hash matches the presented token (prevents token substitution)
			if row.TokenHash != presentedHash || row.UserID != next.UserID {
				return session.ErrInvalid
			}

			_, err = tx.Exec(ctx, `
				UPDATE refresh_tokens
				SET revoked_at = NOW(), replaced_by = $2
				WHERE id = $1
			`, row.ID, next.ID)
			if err != nil {
				return err
			}

			return insertRefreshToken(ctx, tx, next)
		})
	})
}

// RevokeRefreshToken is idempotent.
func (r *RefreshTokensRepo) RevokeRefreshToken(ctx context.Context, id string) error {
	return r.observe("refresh_tokens.revoke", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE refresh_tokens
			SET revoked_at = NOW()
			WHERE id = $1 AND revoked_at IS NULL
		`, id)
		return err
	})
}
