// Package memory is an in-process vault.Persistence. It is used by tests
// and by the "memory" backend for throwaway sessions.
package memory

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/mailvault/internal/common"
	"github.com/dmitrijs2005/mailvault/vault/models"
)

type Store struct {
	mu         sync.RWMutex
	keyPairs   map[string]models.UserKeyPair
	identities map[string]models.MailIdentity
}

func NewStore() *Store {
	return &Store{
		keyPairs:   make(map[string]models.UserKeyPair),
		identities: make(map[string]models.MailIdentity),
	}
}

func (s *Store) GetKeyPair(ctx context.Context, userID string) (*models.UserKeyPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pair, ok := s.keyPairs[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &pair, nil
}

func (s *Store) PutKeyPair(ctx context.Context, pair *models.UserKeyPair) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keyPairs[pair.UserID] = *pair
	return nil
}

func (s *Store) GetIdentity(ctx context.Context, userID string) (*models.MailIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.identities[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &identity, nil
}

func (s *Store) PutIdentity(ctx context.Context, identity *models.MailIdentity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identities[identity.UserID] = *identity
	return nil
}
