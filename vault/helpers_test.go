package vault

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/mailvault/internal/cryptox"
	"github.com/dmitrijs2005/mailvault/internal/logging"
	"github.com/dmitrijs2005/mailvault/internal/repositories/memory"
	"github.com/dmitrijs2005/mailvault/vault/models"
)

var testKDF = cryptox.KDFParams{Time: 1, MemoryKiB: 64, Threads: 1}

var errBoom = errors.New("boom")

// flakyStore wraps memory.Store and fails selected writes on demand.
type flakyStore struct {
	*memory.Store
	failPutKeyPair  atomic.Bool
	dropPutKeyPair  atomic.Bool
	failPutIdentity atomic.Bool
	failGet         atomic.Bool
	keyPairPuts     atomic.Int32
	identityPuts    atomic.Int32
}

func newFlakyStore() *flakyStore {
	return &flakyStore{Store: memory.NewStore()}
}

func (f *flakyStore) GetKeyPair(ctx context.Context, userID string) (*models.UserKeyPair, error) {
	if f.failGet.Load() {
		return nil, errBoom
	}
	return f.Store.GetKeyPair(ctx, userID)
}

func (f *flakyStore) PutKeyPair(ctx context.Context, pair *models.UserKeyPair) error {
	f.keyPairPuts.Add(1)
	if f.failPutKeyPair.Load() {
		return errBoom
	}
	if f.dropPutKeyPair.Load() {
		return nil
	}
	return f.Store.PutKeyPair(ctx, pair)
}

func (f *flakyStore) PutIdentity(ctx context.Context, identity *models.MailIdentity) error {
	f.identityPuts.Add(1)
	if f.failPutIdentity.Load() {
		return errBoom
	}
	return f.Store.PutIdentity(ctx, identity)
}

func newTestVault(t *testing.T) (*Vault, *flakyStore) {
	t.Helper()
	store := newFlakyStore()
	return New(store, testKDF, logging.NewDiscardLogger()), store
}
