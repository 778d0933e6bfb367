package service

import (
	"fmt"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
)

// FieldCipherService implements FieldCipher on top of an AEADManager and the
// keyring. Encryption always uses the current key for a purpose; decryption
// re-derives the exact key version recorded in the field, looked up among
// candidates, never assumed current.
//
// The on-storage layout is nonce || ciphertext+tag in a single blob, so a
// field occupies one database column next to its key version.
type FieldCipherService struct {
	keyring     *cryptoDomain.Keyring
	aeadManager AEADManager
	algorithm   cryptoDomain.Algorithm
}

// NewFieldCipher creates a FieldCipherService using the given algorithm for
// all encryption. Returns ErrUnsupportedAlgorithm for unknown algorithms.
func NewFieldCipher(
	keyring *cryptoDomain.Keyring,
	aeadManager AEADManager,
	algorithm cryptoDomain.Algorithm,
) (*FieldCipherService, error) {
	switch algorithm {
	case cryptoDomain.AESGCM, cryptoDomain.ChaCha20:
	default:
		return nil, fmt.Errorf("%w: %q", cryptoDomain.ErrUnsupportedAlgorithm, algorithm)
	}

	return &FieldCipherService{
		keyring:     keyring,
		aeadManager: aeadManager,
		algorithm:   algorithm,
	}, nil
}

// Encrypt seals plaintext under the current key for the purpose and tags the
// field with the key version used. Fails closed when no current key exists.
func (s *FieldCipherService) Encrypt(
	purpose cryptoDomain.Purpose,
	plaintext []byte,
) (cryptoDomain.EncryptedField, error) {
	key, err := s.keyring.Current(purpose)
	if err != nil {
		return cryptoDomain.EncryptedField{}, err
	}

	aead, err := s.aeadManager.CreateCipher(key.Key, s.algorithm)
	if err != nil {
		return cryptoDomain.EncryptedField{}, err
	}

	ciphertext, nonce, err := aead.Encrypt(plaintext, []byte(purpose))
	if err != nil {
		return cryptoDomain.EncryptedField{}, fmt.Errorf("failed to encrypt field: %w", err)
	}

	blob := make([]byte, 0, len(nonce)+len(ciphertext))
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)

	return cryptoDomain.EncryptedField{
		Ciphertext: blob,
		KeyVersion: key.Version,
	}, nil
}

// aeadNonceSize is the nonce size shared by AES-256-GCM and ChaCha20-Poly1305.
const aeadNonceSize = 12

// Decrypt opens a field using the key version it records. Returns
// ErrDecryptionFailed on unknown key version, truncated blobs, or
// authentication-tag mismatch; garbage plaintext is never returned.
// The returned Secret must be closed by the caller once the plaintext is no
// longer needed.
func (s *FieldCipherService) Decrypt(
	purpose cryptoDomain.Purpose,
	field cryptoDomain.EncryptedField,
) (*cryptoDomain.Secret, error) {
	key, ok := s.keyring.Find(purpose, field.KeyVersion)
	if !ok {
		return nil, fmt.Errorf("%w: unknown key version %s for %s",
			cryptoDomain.ErrDecryptionFailed, field.KeyVersion, purpose)
	}

	if len(field.Ciphertext) <= aeadNonceSize {
		return nil, fmt.Errorf("%w: truncated ciphertext", cryptoDomain.ErrDecryptionFailed)
	}

	aead, err := s.aeadManager.CreateCipher(key.Key, s.algorithm)
	if err != nil {
		return nil, err
	}

	nonce := field.Ciphertext[:aeadNonceSize]
	ciphertext := field.Ciphertext[aeadNonceSize:]

	plaintext, err := aead.Decrypt(ciphertext, nonce, []byte(purpose))
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s", cryptoDomain.ErrDecryptionFailed, purpose, field.KeyVersion)
	}

	return cryptoDomain.NewSecret(plaintext), nil
}
