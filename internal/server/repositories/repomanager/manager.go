// Package repomanager bundles the per-table repositories behind one
// factory. Repositories are requested per call with a dbx.DBTX handle, so
// the same code path works on a plain connection or inside a transaction.
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

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	VerificationTokens(db dbx.DBTX) verificationtokens.Repository
	ResetTokens(db dbx.DBTX) resettokens.Repository
	Tasks(db dbx.DBTX) tasks.Repository
}
