package vault

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/dmitrijs2005/mailvault/internal/common"
	"github.com/dmitrijs2005/mailvault/internal/cryptox"
	"github.com/dmitrijs2005/mailvault/internal/logging"
	"github.com/dmitrijs2005/mailvault/internal/sealbox"
	"github.com/dmitrijs2005/mailvault/vault/models"
	"github.com/google/uuid"
)

// KDFParams are the argon2id costs used to seal new private keys.
type KDFParams = cryptox.KDFParams

// DefaultKDFParams are the costs used when the host has no preference.
var DefaultKDFParams = cryptox.DefaultKDFParams

// PrivateKeyHandle is an unlocked private key returned by UnlockPrivateKey.
type PrivateKeyHandle = sealbox.PrivateKeyHandle

// Test seams.
var (
	generateKeyPair = sealbox.GenerateKeyPair
	sealPrivateKey  = cryptox.Seal
	now             = func() time.Time { return time.Now().UTC() }
)

// KeyStore manages per-user key pairs. It holds no key material between
// calls; everything it knows lives in Persistence.
type KeyStore struct {
	store  Persistence
	kdf    KDFParams
	logger Logger
}

// NewKeyStore constructs a KeyStore that seals new private keys with the
// given argon2id costs.
func NewKeyStore(store Persistence, kdf KDFParams, logger Logger) *KeyStore {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &KeyStore{store: store, kdf: kdf, logger: logger}
}

// EnsureKeyPair returns the user's key pair, generating and storing one
// sealed under passphrase if none exists yet.
//
// After writing a new pair the stored pair is read back and returned, so
// concurrent first-time callers all continue with whichever pair won.
func (k *KeyStore) EnsureKeyPair(ctx context.Context, userID, passphrase string) (*models.UserKeyPair, error) {
	if err := validateUser(userID, passphrase); err != nil {
		return nil, err
	}

	pair, err := k.store.GetKeyPair(ctx, userID)
	if err == nil {
		return pair, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, newError(common.ErrorPersistence, "loading key pair", err)
	}

	handle, publicKey, err := generateKeyPair()
	if err != nil {
		return nil, newError(common.ErrorKeyGeneration, "generating key pair", err)
	}
	defer handle.Close()

	material := handle.Marshal()
	defer common.WipeByteArray(material)

	sealed, err := sealPrivateKey(material, []byte(passphrase), []byte(userID), k.kdf)
	if err != nil {
		return nil, newError(common.ErrorKeyGeneration, "sealing private key", err)
	}

	pair = &models.UserKeyPair{
		ID:                  uuid.NewString(),
		UserID:              userID,
		PublicKey:           publicKey,
		EncryptedPrivateKey: base64.StdEncoding.EncodeToString(sealed),
		CreatedAt:           now(),
	}

	if err := ctx.Err(); err != nil {
		return nil, newError(common.ErrorPersistence, "storing key pair", err)
	}
	if err := k.store.PutKeyPair(ctx, pair); err != nil {
		return nil, newError(common.ErrorPersistence, "storing key pair", err)
	}

	stored, err := k.store.GetKeyPair(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Keep the chain to one kind.
			return nil, newError(common.ErrorPersistence, "key pair missing after write", nil)
		}
		return nil, newError(common.ErrorPersistence, "reloading key pair", err)
	}

	k.logger.Info(ctx, "key pair created", "user_id", userID, "key_id", stored.ID)
	return stored, nil
}

// UnlockPrivateKey opens the user's private key with passphrase. The caller
// must Close the returned handle.
func (k *KeyStore) UnlockPrivateKey(ctx context.Context, userID, passphrase string) (*PrivateKeyHandle, error) {
	_, handle, err := k.unlock(ctx, userID, passphrase)
	return handle, err
}

// PublicKey returns the user's public key in age1... form.
func (k *KeyStore) PublicKey(ctx context.Context, userID string) (string, error) {
	pair, err := k.loadPair(ctx, userID)
	if err != nil {
		return "", err
	}
	return pair.PublicKey, nil
}

// ChangePassphrase reseals the user's private key under newPassphrase. The
// key pair itself (ID and public key) is unchanged, so stored identities
// remain readable.
func (k *KeyStore) ChangePassphrase(ctx context.Context, userID, oldPassphrase, newPassphrase string) error {
	if err := validateUser(userID, newPassphrase); err != nil {
		return err
	}

	pair, handle, err := k.unlock(ctx, userID, oldPassphrase)
	if err != nil {
		return err
	}
	defer handle.Close()

	material := handle.Marshal()
	defer common.WipeByteArray(material)

	sealed, err := sealPrivateKey(material, []byte(newPassphrase), []byte(userID), k.kdf)
	if err != nil {
		return newError(common.ErrorEncryption, "resealing private key", err)
	}

	resealed := *pair
	resealed.EncryptedPrivateKey = base64.StdEncoding.EncodeToString(sealed)

	if err := ctx.Err(); err != nil {
		return newError(common.ErrorPersistence, "storing key pair", err)
	}
	if err := k.store.PutKeyPair(ctx, &resealed); err != nil {
		return newError(common.ErrorPersistence, "storing key pair", err)
	}

	k.logger.Info(ctx, "passphrase changed", "user_id", userID, "key_id", pair.ID)
	return nil
}

func (k *KeyStore) loadPair(ctx context.Context, userID string) (*models.UserKeyPair, error) {
	pair, err := k.store.GetKeyPair(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, newError(common.ErrorNotFound, "no key pair for user", nil)
		}
		return nil, newError(common.ErrorPersistence, "loading key pair", err)
	}
	return pair, nil
}

// unlock returns the stored pair together with its opened private key.
func (k *KeyStore) unlock(ctx context.Context, userID, passphrase string) (*models.UserKeyPair, *sealbox.PrivateKeyHandle, error) {
	if err := validateUser(userID, passphrase); err != nil {
		return nil, nil, err
	}

	pair, err := k.loadPair(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	sealed, err := base64.StdEncoding.DecodeString(pair.EncryptedPrivateKey)
	if err != nil {
		return nil, nil, newError(common.ErrorDecryption, "decoding private key", err)
	}

	material, err := cryptox.Open(sealed, []byte(passphrase), []byte(userID))
	if err != nil {
		if errors.Is(err, cryptox.ErrAuthentication) {
			k.logger.Warn(ctx, "private key unlock rejected", "user_id", userID)
			return nil, nil, newError(common.ErrorInvalidPassphrase, "unlocking private key", nil)
		}
		return nil, nil, newError(common.ErrorDecryption, "decoding private key", err)
	}
	defer common.WipeByteArray(material)

	handle, err := sealbox.ParsePrivateKey(material)
	if err != nil {
		return nil, nil, newError(common.ErrorDecryption, "parsing private key", nil)
	}
	if handle.PublicKey() != pair.PublicKey {
		handle.Close()
		return nil, nil, newError(common.ErrorDecryption, "private key does not match public key", nil)
	}

	return pair, handle, nil
}
