package identities

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

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.MailIdentity, error) {
	query :=
		`SELECT user_id, key_id, encrypted_username, encrypted_password, updated_at FROM mail_identities
		 WHERE user_id = $1
		 `

	identity := &models.MailIdentity{}
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&identity.UserID, &identity.KeyID, &identity.EncryptedUsername, &identity.EncryptedPassword, &identity.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return identity, nil
}

func (r *PostgresRepository) Put(ctx context.Context, identity *models.MailIdentity) error {
	query :=
		`INSERT INTO mail_identities (user_id, key_id, encrypted_username, encrypted_password, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
		   key_id = EXCLUDED.key_id,
		   encrypted_username = EXCLUDED.encrypted_username,
		   encrypted_password = EXCLUDED.encrypted_password,
		   updated_at = EXCLUDED.updated_at
		 `

	_, err := r.db.ExecContext(ctx, query,
		identity.UserID, identity.KeyID, identity.EncryptedUsername, identity.EncryptedPassword, identity.UpdatedAt)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
