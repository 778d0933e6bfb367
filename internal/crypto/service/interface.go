// Package service provides cryptographic services for the identity engine:
// AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305), the HMAC blind index, the
// PII field cipher, and the file-based key store loader.
package service

import (
	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// BlindIndexer derives deterministic keyed hashes for equality lookup of
// encrypted values. Writes always use the current key for a purpose; reads
// compute one candidate hash per still-valid key version so records written
// before a rotation remain findable.
type BlindIndexer interface {
	// HashForWrite hashes plaintext with the current key for the purpose.
	// Fails closed with ErrKeyUnavailable/ErrNoCurrentKey when no current
	// key exists.
	HashForWrite(purpose cryptoDomain.Purpose, plaintext []byte) (cryptoDomain.BlindIndexValue, error)

	// HashCandidates hashes plaintext with every candidate key for the
	// purpose, de-duplicated by resulting hash value, ordered current first.
	HashCandidates(purpose cryptoDomain.Purpose, plaintext []byte) ([]cryptoDomain.BlindIndexValue, error)
}

// FieldCipher encrypts and decrypts PII fields for storage.
type FieldCipher interface {
	// Encrypt seals plaintext under the current key for the purpose.
	Encrypt(purpose cryptoDomain.Purpose, plaintext []byte) (cryptoDomain.EncryptedField, error)

	// Decrypt opens a field using the exact key version it records,
	// looked up among candidates. Returns ErrDecryptionFailed on
	// authentication failure or unknown key version. The returned Secret
	// must be closed by the caller.
	Decrypt(purpose cryptoDomain.Purpose, field cryptoDomain.EncryptedField) (*cryptoDomain.Secret, error)
}
