package vault

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/mailvault/internal/common"
	"github.com/dmitrijs2005/mailvault/internal/sealbox"
	"github.com/dmitrijs2005/mailvault/vault/models"
)

// Cipher seams.
var (
	encryptField = sealbox.Encrypt
	decryptField = sealbox.Decrypt
)

// Vault is the host-facing credential store.
type Vault struct {
	keys   *KeyStore
	store  Persistence
	logger Logger
}

// New constructs a Vault and its KeyStore over the same persistence.
func New(store Persistence, kdf KDFParams, logger Logger) *Vault {
	keys := NewKeyStore(store, kdf, logger)
	return &Vault{
		keys:   keys,
		store:  store,
		logger: keys.logger,
	}
}

// Keys exposes the key lifecycle primitives (EnsureKeyPair, PublicKey,
// ChangePassphrase) for host-side policies such as rotation.
func (v *Vault) Keys() *KeyStore {
	return v.keys
}

// SaveIdentity encrypts the mail login to the user's public key, creating
// the key pair on first use, and stores both fields in one write. Nothing
// is written unless both fields encrypted successfully.
func (v *Vault) SaveIdentity(ctx context.Context, userID, passphrase, mailUsername, mailPassword string) (*models.MailIdentity, error) {
	identity, err := v.SealIdentity(ctx, userID, passphrase, mailUsername, mailPassword)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, newError(common.ErrorPersistence, "storing identity", err)
	}
	if err := v.store.PutIdentity(ctx, identity); err != nil {
		v.logger.Error(ctx, "storing identity failed", "user_id", userID, "error", err)
		return nil, newError(common.ErrorPersistence, "storing identity", err)
	}

	v.logger.Info(ctx, "identity saved", "user_id", userID, "key_id", identity.KeyID)
	return identity, nil
}

// SealIdentity produces the ciphertext form of a mail login without storing
// it. The key pair is still created if the user has none.
func (v *Vault) SealIdentity(ctx context.Context, userID, passphrase, mailUsername, mailPassword string) (*models.MailIdentity, error) {
	if err := validateIdentity(userID, passphrase, mailUsername, mailPassword); err != nil {
		return nil, err
	}

	pair, err := v.keys.EnsureKeyPair(ctx, userID, passphrase)
	if err != nil {
		return nil, err
	}

	encryptedUsername, err := encryptField(mailUsername, pair.PublicKey)
	if err != nil {
		return nil, newError(common.ErrorEncryption, "encrypting mail username", err)
	}
	encryptedPassword, err := encryptField(mailPassword, pair.PublicKey)
	if err != nil {
		return nil, newError(common.ErrorEncryption, "encrypting mail password", err)
	}

	return &models.MailIdentity{
		UserID:            userID,
		KeyID:             pair.ID,
		EncryptedUsername: encryptedUsername,
		EncryptedPassword: encryptedPassword,
		UpdatedAt:         now(),
	}, nil
}

// LoadIdentity unlocks the user's private key and returns the decrypted mail
// login. Either both fields are returned or the call fails.
func (v *Vault) LoadIdentity(ctx context.Context, userID, passphrase string) (string, string, error) {
	pair, handle, err := v.keys.unlock(ctx, userID, passphrase)
	if err != nil {
		return "", "", err
	}
	defer handle.Close()

	identity, err := v.store.GetIdentity(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", "", newError(common.ErrorNotFound, "no identity for user", nil)
		}
		return "", "", newError(common.ErrorPersistence, "loading identity", err)
	}

	if identity.KeyID != "" && identity.KeyID != pair.ID {
		v.logger.Warn(ctx, "identity sealed under another key pair", "user_id", userID,
			"key_id", pair.ID, "identity_key_id", identity.KeyID)
		return "", "", newError(common.ErrorDecryption, "identity sealed under another key pair", nil)
	}

	username, err := decryptField(identity.EncryptedUsername, handle)
	if err != nil {
		return "", "", newError(common.ErrorDecryption, "decrypting mail username", err)
	}
	password, err := decryptField(identity.EncryptedPassword, handle)
	if err != nil {
		return "", "", newError(common.ErrorDecryption, "decrypting mail password", err)
	}

	return username, password, nil
}
