// Package vault stores webmail credentials for host users.
//
// Each user owns an age X25519 key pair. The public key is kept in clear and
// the private key is sealed under the user's login passphrase (argon2id +
// AES-GCM). Mail username and password are each encrypted to the public key
// and written as one record. Loading reverses the chain: the passphrase
// unlocks the private key, which decrypts the record.
//
// Nothing here caches key material between calls. The passphrase is an
// argument of every operation that needs it, and unlocked keys are closed
// before the call returns.
//
// A user's entry moves ABSENT -> KEYED (EnsureKeyPair) -> COMPLETE
// (SaveIdentity); saving again overwrites the identity. No operation removes
// a key pair.
//
// Every error returned by this package is a *Error. Match its kind with
// errors.Is against the Error* kinds declared here, e.g.
//
//	if errors.Is(err, vault.ErrorInvalidPassphrase) {
//	    // ask the user to re-authenticate
//	}
package vault
