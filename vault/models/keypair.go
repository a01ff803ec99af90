package models

import "time"

// UserKeyPair is the per-user asymmetric key pair. PublicKey is stored in
// clear; EncryptedPrivateKey is sealed under the user's passphrase and is
// only ever opened for the duration of a single call.
//
// ID changes every time a pair is generated, so identities can record which
// generation they were sealed under.
type UserKeyPair struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	PublicKey           string    `json:"public_key"`
	EncryptedPrivateKey string    `json:"encrypted_private_key"`
	CreatedAt           time.Time `json:"created_at"`
}
