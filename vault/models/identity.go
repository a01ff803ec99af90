package models

import "time"

// MailIdentity is the IMAP login of a host user in ciphertext form. Both
// credential fields are sealed to the public key of the pair named by KeyID
// and are always written together.
type MailIdentity struct {
	UserID            string    `json:"user_id"`
	KeyID             string    `json:"key_id"`
	EncryptedUsername string    `json:"encrypted_username"`
	EncryptedPassword string    `json:"encrypted_password"`
	UpdatedAt         time.Time `json:"updated_at"`
}
