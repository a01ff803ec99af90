// Package keypairs persists per-user key pairs. Put is a single upsert
// statement, so a reader never sees one field from an old pair and another
// from a new one.
package keypairs

import (
	"context"

	"github.com/dmitrijs2005/mailvault/vault/models"
)

type Repository interface {
	Get(ctx context.Context, userID string) (*models.UserKeyPair, error)
	Put(ctx context.Context, pair *models.UserKeyPair) error
}
