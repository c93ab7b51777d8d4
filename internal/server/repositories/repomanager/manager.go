package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/sealdrop/internal/dbx"
	"github.com/dmitrijs2005/sealdrop/internal/server/repositories/escrow"
	"github.com/dmitrijs2005/sealdrop/internal/server/repositories/files"
	"github.com/dmitrijs2005/sealdrop/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/sealdrop/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a *sql.DB or a *sql.Tx, so
// a service can run several repositories inside one dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Files(db dbx.DBTX) files.Repository
	Escrow(db dbx.DBTX) escrow.Repository
}
