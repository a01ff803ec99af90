package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/mailvault/vault/models"
)

// Drivers registered by this package, keyed by backend name.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

// Store implements vault.Persistence over a RepositoryManager.
type Store struct {
	db      *sql.DB
	manager RepositoryManager
}

func NewStore(db *sql.DB, manager RepositoryManager) *Store {
	return &Store{db: db, manager: manager}
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Open connects with driver, runs the manager's migrations and returns a
// ready Store. The caller owns the returned *sql.DB and must close it.
func Open(ctx context.Context, driver, dsn string, manager RepositoryManager) (*Store, *sql.DB, error) {
	db, err := sqlOpen(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := manager.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db migration error: %w", err)
	}
	return NewStore(db, manager), db, nil
}

func (s *Store) GetKeyPair(ctx context.Context, userID string) (*models.UserKeyPair, error) {
	return s.manager.KeyPairs(s.db).Get(ctx, userID)
}

func (s *Store) PutKeyPair(ctx context.Context, pair *models.UserKeyPair) error {
	return s.manager.KeyPairs(s.db).Put(ctx, pair)
}

func (s *Store) GetIdentity(ctx context.Context, userID string) (*models.MailIdentity, error) {
	return s.manager.Identities(s.db).Get(ctx, userID)
}

func (s *Store) PutIdentity(ctx context.Context, identity *models.MailIdentity) error {
	return s.manager.Identities(s.db).Put(ctx, identity)
}
