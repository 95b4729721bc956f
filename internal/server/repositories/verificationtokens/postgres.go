package verificationtokens

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

func (r *PostgresRepository) Replace(ctx context.Context, userID string, token string, validity time.Duration) (*models.VerificationToken, error) {

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM email_verification_tokens WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	query :=
		`INSERT INTO email_verification_tokens (user_id, token, expires_at)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	vt := &models.VerificationToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(validity),
	}

	err := r.db.QueryRowContext(ctx, query, userID, token, vt.ExpiresAt).
		Scan(&vt.ID, &vt.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return vt, nil
}

func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.VerificationToken, error) {
	query :=
		`SELECT id, user_id, token, expires_at, used, created_at
		 FROM email_verification_tokens
		 WHERE token = $1
		 `

	vt := &models.VerificationToken{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&vt.ID, &vt.UserID, &vt.Token, &vt.ExpiresAt, &vt.Used, &vt.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return vt, nil
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, token string) error {
	query := `UPDATE email_verification_tokens SET used = true WHERE token = $1 AND used = false`

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
