// Package cryptox seals small secrets under a passphrase.
//
// The passphrase is stretched with argon2id and the result keys AES-256-GCM.
// A sealed blob is self-describing: it carries the KDF parameters and the
// salt it was produced with, so changing the configured parameters never
// strands previously sealed material.
//
//	version(1) | time(4) | memory(4) | threads(1) | salt(16) | nonce(12) | ciphertext
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"errors"

	"github.com/dmitrijs2005/mailvault/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	sealVersion = 1
	SaltSize    = 16
	KeySize     = 32
	nonceSize   = 12
	headerSize  = 1 + 4 + 4 + 1 + SaltSize + nonceSize
)

var (
	// ErrMalformed means the blob cannot be parsed at all.
	ErrMalformed = errors.New("malformed sealed data")
	// ErrAuthentication means the blob parsed but the AEAD rejected it:
	// wrong passphrase, wrong associated data or tampered ciphertext.
	ErrAuthentication = errors.New("message authentication failed")
)

// KDFParams are the argon2id cost parameters.
type KDFParams struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// DefaultKDFParams are the argon2id costs used when the configuration does
// not override them.
var DefaultKDFParams = KDFParams{Time: 1, MemoryKiB: 64 * 1024, Threads: 4}

// Upper bounds on the argon2id costs. Open refuses headers above them, so a
// corrupted blob cannot stall or exhaust the process.
const (
	MaxKDFTime      = 16
	MaxKDFMemoryKiB = 1 << 21 // 2 GiB
	MaxKDFThreads   = 64
)

// ErrKDFParams is returned by Seal for costs Open would refuse.
var ErrKDFParams = errors.New("kdf parameters out of range")

func (p KDFParams) valid() bool {
	return p.Time >= 1 && p.Time <= MaxKDFTime &&
		p.Threads >= 1 && p.Threads <= MaxKDFThreads &&
		p.MemoryKiB >= 8*uint32(p.Threads) && p.MemoryKiB <= MaxKDFMemoryKiB
}

// DeriveMasterKey stretches password with argon2id into a KeySize-byte key.
func DeriveMasterKey(password []byte, salt []byte, p KDFParams) []byte {
	return argon2.IDKey(password, salt, p.Time, p.MemoryKiB, p.Threads, KeySize)
}

// Seal encrypts plaintext under a key derived from passphrase. The
// associated data is authenticated but not stored; Open must be given the
// same value.
func Seal(plaintext, passphrase, associatedData []byte, p KDFParams) ([]byte, error) {
	if !p.valid() {
		return nil, ErrKDFParams
	}

	salt := common.GenerateRandByteArray(SaltSize)
	key := DeriveMasterKey(passphrase, salt, p)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	header := make([]byte, headerSize)
	header[0] = sealVersion
	binary.BigEndian.PutUint32(header[1:5], p.Time)
	binary.BigEndian.PutUint32(header[5:9], p.MemoryKiB)
	header[9] = p.Threads
	copy(header[10:10+SaltSize], salt)
	nonce := header[10+SaltSize:]
	copy(nonce, common.GenerateRandByteArray(nonceSize))

	return aesgcm.Seal(header, nonce, plaintext, associatedData), nil
}

// Open reverses Seal. It returns ErrMalformed when the blob is structurally
// invalid and ErrAuthentication when the passphrase or associated data do
// not match.
func Open(sealed, passphrase, associatedData []byte) ([]byte, error) {
	if len(sealed) < headerSize || sealed[0] != sealVersion {
		return nil, ErrMalformed
	}

	p := KDFParams{
		Time:      binary.BigEndian.Uint32(sealed[1:5]),
		MemoryKiB: binary.BigEndian.Uint32(sealed[5:9]),
		Threads:   sealed[9],
	}
	if !p.valid() {
		return nil, ErrMalformed
	}
	salt := sealed[10 : 10+SaltSize]
	nonce := sealed[10+SaltSize : headerSize]

	key := DeriveMasterKey(passphrase, salt, p)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesgcm.Open(nil, nonce, sealed[headerSize:], associatedData)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
