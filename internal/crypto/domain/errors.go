package domain

import (
	"github.com/allisson/identity/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// to provide context for cryptographic failures. All errors are mapped to
// appropriate HTTP status codes by the error handling layer.
var (
	// ErrKeyUnavailable indicates no usable key material exists for a purpose.
	//
	// This is a fail-closed condition: the dependent operation (registration,
	// password reset, subscribe) must refuse to proceed rather than silently
	// skip the security property. Alert-worthy.
	//
	// HTTP Status: 503 Service Unavailable
	ErrKeyUnavailable = errors.Wrap(errors.ErrUnavailable, "key unavailable")

	// ErrUnknownPurpose indicates a purpose outside the closed set was requested.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrUnknownPurpose = errors.Wrap(errors.ErrInvalidInput, "unknown purpose")

	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	//
	// Supported algorithms: AESGCM (AES-256-GCM), ChaCha20 (ChaCha20-Poly1305)
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates the cryptographic key size is invalid.
	//
	// All key material must be exactly 32 bytes (256 bits).
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates a decryption operation failed.
	//
	// This covers authentication-tag mismatch, corrupted ciphertext, and
	// fields recorded under a key version the keyring no longer knows.
	// The operation fails closed; garbage plaintext is never returned and
	// the specific cause is not disclosed to callers.
	//
	// HTTP Status: 500 Internal Server Error
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrDuplicateCurrentKey indicates two key files claim current status for
	// the same purpose. Rotation tooling must retire the old version first.
	ErrDuplicateCurrentKey = errors.New("duplicate current key for purpose")

	// ErrNoCurrentKey indicates a purpose has only retired keys on disk.
	// Data written under them can still be read, but no new writes may
	// occur: the engine fails closed until a current key is provisioned.
	//
	// HTTP Status: 503 Service Unavailable
	ErrNoCurrentKey = errors.Wrap(errors.ErrUnavailable, "no current key for purpose")
)
