package repomanager

import (
	"context"
	"database/sql"

	"github.com/fortislabs/fortis/internal/dbx"
	"github.com/fortislabs/fortis/internal/server/repositories/refreshtokens"
	"github.com/fortislabs/fortis/internal/server/repositories/resettokens"
	"github.com/fortislabs/fortis/internal/server/repositories/tasks"
	"github.com/fortislabs/fortis/internal/server/repositories/users"
	"github.com/fortislabs/fortis/internal/server/repositories/verificationtokens"
)

// InMemoryRepositoryManager serves the map-backed repositories and ignores
// the DBTX handle. Used in tests; transactions degrade to plain calls.
type InMemoryRepositoryManager struct {
	users              *users.InMemoryRepository
	refreshTokens      *refreshtokens.InMemoryRepository
	verificationTokens *verificationtokens.InMemoryRepository
	resetTokens        *resettokens.InMemoryRepository
	tasks              *tasks.InMemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users:              users.NewInMemoryRepository(),
		refreshTokens:      refreshtokens.NewInMemoryRepository(),
		verificationTokens: verificationtokens.NewInMemoryRepository(),
		resetTokens:        resettokens.NewInMemoryRepository(),
		tasks:              tasks.NewInMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return m.users
}

func (m *InMemoryRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return m.refreshTokens
}

func (m *InMemoryRepositoryManager) VerificationTokens(db dbx.DBTX) verificationtokens.Repository {
	return m.verificationTokens
}

func (m *InMemoryRepositoryManager) ResetTokens(db dbx.DBTX) resettokens.Repository {
	return m.resetTokens
}

func (m *InMemoryRepositoryManager) Tasks(db dbx.DBTX) tasks.Repository {
	return m.tasks
}
