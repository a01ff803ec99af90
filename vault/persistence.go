package vault

import (
	"context"

	"github.com/dmitrijs2005/mailvault/vault/models"
)

// Persistence is the storage the vault writes through. Implementations must
// return common.ErrorNotFound for absent rows and must make each Put a
// single atomic write of the whole record.
type Persistence interface {
	GetKeyPair(ctx context.Context, userID string) (*models.UserKeyPair, error)
	PutKeyPair(ctx context.Context, pair *models.UserKeyPair) error
	GetIdentity(ctx context.Context, userID string) (*models.MailIdentity, error)
	PutIdentity(ctx context.Context, identity *models.MailIdentity) error
}
