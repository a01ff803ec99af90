package keypairs

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/mailvault/internal/common"
	"github.com/dmitrijs2005/mailvault/internal/dbx"
	"github.com/dmitrijs2005/mailvault/vault/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, userID string) (*models.UserKeyPair, error) {
	pair := &models.UserKeyPair{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, public_key, encrypted_private_key, created_at
		FROM key_pairs WHERE user_id = ?
	`, userID).Scan(&pair.ID, &pair.UserID, &pair.PublicKey, &pair.EncryptedPrivateKey, &pair.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key pair[%s]: %w", userID, err)
	}
	return pair, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, pair *models.UserKeyPair) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO key_pairs (user_id, id, public_key, encrypted_private_key, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			id = excluded.id,
			public_key = excluded.public_key,
			encrypted_private_key = excluded.encrypted_private_key,
			created_at = excluded.created_at
	`, pair.UserID, pair.ID, pair.PublicKey, pair.EncryptedPrivateKey, pair.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to put key pair[%s]: %w", pair.UserID, err)
	}
	return nil
}
