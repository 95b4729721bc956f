package repomanager

import (
	"context"
	"database/sql"

	"github.com/fortislabs/fortis/internal/dbx"
	"github.com/fortislabs/fortis/internal/server/migrations"
	"github.com/fortislabs/fortis/internal/server/repositories/refreshtokens"
	"github.com/fortislabs/fortis/internal/server/repositories/resettokens"
	"github.com/fortislabs/fortis/internal/server/repositories/tasks"
	"github.com/fortislabs/fortis/internal/server/repositories/users"
	"github.com/fortislabs/fortis/internal/server/repositories/verificationtokens"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct {
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) VerificationTokens(db dbx.DBTX) verificationtokens.Repository {
	return verificationtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) ResetTokens(db dbx.DBTX) resettokens.Repository {
	return resettokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Tasks(db dbx.DBTX) tasks.Repository {
	return tasks.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return err
	}

	return nil
}
