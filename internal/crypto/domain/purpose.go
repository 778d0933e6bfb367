package domain

import (
	"fmt"
)

// Purpose identifies what a piece of key material protects. Keys are never
// shared across purposes: the blind index, the PII cipher, and each token
// flow all derive from their own key files, so a leaked or rotated key in
// one purpose cannot affect another.
type Purpose string

const (
	// PurposeEmailIndex keys the HMAC blind index used for email equality lookup.
	PurposeEmailIndex Purpose = "email_index"

	// PurposeEmailSeal keys the AEAD encryption of email addresses at rest.
	PurposeEmailSeal Purpose = "email_seal"

	// PurposeEmailVerify keys validator hashes for account email verification tokens.
	PurposeEmailVerify Purpose = "email_verify"

	// PurposePasswordReset keys validator hashes for password reset tokens.
	PurposePasswordReset Purpose = "password_reset"

	// PurposeNewsletterConfirm keys validator hashes for newsletter confirmation tokens.
	PurposeNewsletterConfirm Purpose = "newsletter_confirm"

	// PurposeNewsletterUnsubscribe keys validator hashes for newsletter unsubscribe tokens.
	PurposeNewsletterUnsubscribe Purpose = "newsletter_unsubscribe"
)

// allPurposes lists every valid purpose, used for parsing and key directory checks.
var allPurposes = []Purpose{
	PurposeEmailIndex,
	PurposeEmailSeal,
	PurposeEmailVerify,
	PurposePasswordReset,
	PurposeNewsletterConfirm,
	PurposeNewsletterUnsubscribe,
}

// Purposes returns all valid purposes.
func Purposes() []Purpose {
	out := make([]Purpose, len(allPurposes))
	copy(out, allPurposes)
	return out
}

// IsValid reports whether p is one of the known purposes.
func (p Purpose) IsValid() bool {
	for _, known := range allPurposes {
		if p == known {
			return true
		}
	}
	return false
}

// String returns the string representation of the purpose.
func (p Purpose) String() string {
	return string(p)
}

// ParsePurpose converts a string into a Purpose.
// Returns ErrUnknownPurpose for values outside the closed set.
func ParsePurpose(s string) (Purpose, error) {
	p := Purpose(s)
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPurpose, s)
	}
	return p, nil
}
