package keypairs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mailvault/internal/common"
	"github.com/dmitrijs2005/mailvault/internal/dbx"
	"github.com/dmitrijs2005/mailvault/vault/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.UserKeyPair, error) {
	query :=
		`SELECT id, user_id, public_key, encrypted_private_key, created_at FROM key_pairs
		 WHERE user_id = $1
		 `

	pair := &models.UserKeyPair{}
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&pair.ID, &pair.UserID, &pair.PublicKey, &pair.EncryptedPrivateKey, &pair.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return pair, nil
}

func (r *PostgresRepository) Put(ctx context.Context, pair *models.UserKeyPair) error {
	query :=
		`INSERT INTO key_pairs (user_id, id, public_key, encrypted_private_key, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
		   id = EXCLUDED.id,
		   public_key = EXCLUDED.public_key,
		   encrypted_private_key = EXCLUDED.encrypted_private_key,
		   created_at = EXCLUDED.created_at
		 `

	_, err := r.db.ExecContext(ctx, query,
		pair.UserID, pair.ID, pair.PublicKey, pair.EncryptedPrivateKey, pair.CreatedAt)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
