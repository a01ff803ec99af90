package identities

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

func (r *SQLiteRepository) Get(ctx context.Context, userID string) (*models.MailIdentity, error) {
	identity := &models.MailIdentity{}
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, key_id, encrypted_username, encrypted_password, updated_at
		FROM mail_identities WHERE user_id = ?
	`, userID).Scan(&identity.UserID, &identity.KeyID, &identity.EncryptedUsername, &identity.EncryptedPassword, &identity.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity[%s]: %w", userID, err)
	}
	return identity, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, identity *models.MailIdentity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mail_identities (user_id, key_id, encrypted_username, encrypted_password, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			key_id = excluded.key_id,
			encrypted_username = excluded.encrypted_username,
			encrypted_password = excluded.encrypted_password,
			updated_at = excluded.updated_at
	`, identity.UserID, identity.KeyID, identity.EncryptedUsername, identity.EncryptedPassword, identity.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to put identity[%s]: %w", identity.UserID, err)
	}
	return nil
}
