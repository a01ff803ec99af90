// Package sealbox is the stateless envelope cipher used for mail
// credentials. It wraps filippo.io/age X25519 recipients: each call seals a
// fresh file key to the recipient and encrypts the payload with it, so there
// is no practical limit on plaintext length.
//
// Ciphertext is standard base64 so it can live in text columns and JSON
// documents. Decrypt reports every failure as common.ErrorDecryption without
// saying whether the key or the ciphertext was at fault.
package sealbox
