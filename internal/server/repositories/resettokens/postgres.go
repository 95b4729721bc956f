package resettokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fortislabs/fortis/internal/common"
	"github.com/fortislabs/fortis/internal/dbx"
	"github.com/fortislabs/fortis/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Replace(ctx context.Context, userID string, token string, validity time.Duration) (*models.ResetToken, error) {

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM password_reset_tokens WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	query :=
		`INSERT INTO password_reset_tokens (user_id, token, expires_at)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	rt := &models.ResetToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(validity),
	}

	err := r.db.QueryRowContext(ctx, query, userID, token, rt.ExpiresAt).
		Scan(&rt.ID, &rt.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rt, nil
}

func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.ResetToken, error) {
	query :=
		`SELECT id, user_id, token, expires_at, used, created_at
		 FROM password_reset_tokens
		 WHERE token = $1
		 `

	rt := &models.ResetToken{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.Used, &rt.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rt, nil
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, token string) error {
	query := `UPDATE password_reset_tokens SET used = true WHERE token = $1 AND used = false`

	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrTokenUsed
	}

	return nil
}
