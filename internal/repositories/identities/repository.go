// Package identities persists encrypted mail identities. Both credential
// fields go out in one upsert statement.
package identities

import (
	"context"

	"github.com/dmitrijs2005/mailvault/vault/models"
)

type Repository interface {
	Get(ctx context.Context, userID string) (*models.MailIdentity, error)
	Put(ctx context.Context, identity *models.MailIdentity) error
}
