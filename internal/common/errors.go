// Package common defines the sentinel errors shared by the vault, its
// persistence adapters and the command-line tool. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrorPersistence = errors.New("persistence error")

	// Key lifecycle errors.
	ErrorKeyGeneration     = errors.New("key generation failed")
	ErrorInvalidPassphrase = errors.New("invalid passphrase")

	// Cipher errors.
	ErrorEncryption = errors.New("encryption failed")
	ErrorDecryption = errors.New("decryption failed")

	// Input errors.
	ErrorValidation = errors.New("validation error")
)
