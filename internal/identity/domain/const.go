// Package domain defines the core identity domain entities and types.
package domain

import (
	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
)

const (
	// SelectorSize is the number of random bytes in a token selector.
	// The 12-hex-char selector is sized for efficient indexed lookup, not
	// secrecy; all secrecy lives in the 256-bit validator.
	SelectorSize = 6

	// ValidatorSize is the number of random bytes in a token validator.
	ValidatorSize = 32
)

// TokenPurposes lists the purposes that issue selector/validator tokens.
var TokenPurposes = []cryptoDomain.Purpose{
	cryptoDomain.PurposeEmailVerify,
	cryptoDomain.PurposePasswordReset,
	cryptoDomain.PurposeNewsletterConfirm,
	cryptoDomain.PurposeNewsletterUnsubscribe,
}

// IsTokenPurpose reports whether p issues selector/validator tokens
// (as opposed to the PII hashing/sealing purposes).
func IsTokenPurpose(p cryptoDomain.Purpose) bool {
	for _, tp := range TokenPurposes {
		if p == tp {
			return true
		}
	}
	return false
}
