package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/mailvault/internal/dbx"
	"github.com/dmitrijs2005/mailvault/internal/repositories/identities"
	"github.com/dmitrijs2005/mailvault/internal/repositories/keypairs"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	KeyPairs(db dbx.DBTX) keypairs.Repository
	Identities(db dbx.DBTX) identities.Repository
}
