package domain

import "context"

// BlindIndexValue is a deterministic keyed hash of a plaintext value, stored
// alongside the ciphertext to enable equality lookup without decrypting or
// exposing the plaintext. The key version records which key derived the hash
// so rotation-aware reads can match records written under prior keys.
type BlindIndexValue struct {
	Hash       []byte
	KeyVersion string
}

// EncryptedField is an authenticated-encrypted PII value for storage.
// Ciphertext carries the AEAD nonce prepended to the sealed data; KeyVersion
// records the exact key version used so decryption never assumes the current
// key.
type EncryptedField struct {
	Ciphertext []byte
	KeyVersion string
}

// KMSKeeper abstracts a KMS-backed wrapping key used to protect key files at
// rest. *secrets.Keeper from gocloud.dev implements this interface.
type KMSKeeper interface {
	// Encrypt encrypts plaintext using the KMS key.
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)

	// Decrypt decrypts ciphertext using the KMS key.
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)

	// Close releases resources associated with the keeper.
	Close() error
}
