package sealbox

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
	"github.com/dmitrijs2005/mailvault/internal/common"
)

// PrivateKeyHandle is an unlocked age identity. It is meant to live for a
// single call chain and be closed when that chain ends.
type PrivateKeyHandle struct {
	identity *age.X25519Identity
}

// GenerateKeyPair creates a new X25519 identity and returns it together with
// its public recipient string (age1...).
func GenerateKeyPair() (*PrivateKeyHandle, string, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, "", fmt.Errorf("generating age keypair: %w", err)
	}
	return &PrivateKeyHandle{identity: identity}, identity.Recipient().String(), nil
}

// ParsePrivateKey parses AGE-SECRET-KEY-1... material.
func ParsePrivateKey(material []byte) (*PrivateKeyHandle, error) {
	identity, err := age.ParseX25519Identity(strings.TrimSpace(string(material)))
	if err != nil {
		return nil, fmt.Errorf("invalid age private key: %w", err)
	}
	return &PrivateKeyHandle{identity: identity}, nil
}

// ParsePublicKey validates an age1... recipient string.
func ParsePublicKey(publicKey string) error {
	if _, err := age.ParseX25519Recipient(publicKey); err != nil {
		return fmt.Errorf("invalid age public key: %w", err)
	}
	return nil
}

// Marshal returns the serialized private key. The caller owns the slice and
// should wipe it once it has been sealed.
func (h *PrivateKeyHandle) Marshal() []byte {
	if h == nil || h.identity == nil {
		return nil
	}
	return []byte(h.identity.String())
}

// PublicKey returns the recipient string matching this identity.
func (h *PrivateKeyHandle) PublicKey() string {
	if h == nil || h.identity == nil {
		return ""
	}
	return h.identity.Recipient().String()
}

// Close drops the identity. Further use of the handle fails.
func (h *PrivateKeyHandle) Close() {
	if h != nil {
		h.identity = nil
	}
}

// Encrypt seals plaintext to publicKey and returns base64 ciphertext.
func Encrypt(plaintext string, publicKey string) (string, error) {
	recipient, err := age.ParseX25519Recipient(publicKey)
	if err != nil {
		return "", fmt.Errorf("%w: parsing recipient key: %v", common.ErrorEncryption, err)
	}

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipient)
	if err != nil {
		return "", fmt.Errorf("%w: creating age encryptor: %v", common.ErrorEncryption, err)
	}
	if _, err := io.WriteString(writer, plaintext); err != nil {
		return "", fmt.Errorf("%w: writing plaintext: %v", common.ErrorEncryption, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("%w: finalizing: %v", common.ErrorEncryption, err)
	}

	return base64.StdEncoding.EncodeToString(ciphertext.Bytes()), nil
}

// Decrypt opens a ciphertext produced by Encrypt.
func Decrypt(ciphertext string, key *PrivateKeyHandle) (string, error) {
	if key == nil || key.identity == nil {
		return "", common.ErrorDecryption
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", common.ErrorDecryption
	}

	reader, err := age.Decrypt(bytes.NewReader(raw), key.identity)
	if err != nil {
		return "", common.ErrorDecryption
	}

	// The payload MAC is checked chunk by chunk while reading.
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return "", common.ErrorDecryption
	}
	return string(plaintext), nil
}
