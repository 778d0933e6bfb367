package domain

import (
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
)

// VerificationToken is the persisted half of a selector/validator token.
//
// Only the selector (public lookup handle) and the keyed hash of the
// validator are stored; the plaintext validator is returned to the caller
// once at issue time and never persisted, so a database-read-only attacker
// cannot forge a valid token.
//
// Lifecycle: created with UsedAt nil; consumed exactly once, which sets
// UsedAt and nulls ValidatorHash and KeyVersion so the row can never satisfy
// another comparison even under key compromise. A subject owns at most one
// outstanding token per purpose: issuing supersedes any prior row.
type VerificationToken struct {
	Selector      string
	ValidatorHash []byte
	KeyVersion    string
	SubjectID     uuid.UUID
	Purpose       cryptoDomain.Purpose
	ExpiresAt     time.Time
	UsedAt        *time.Time
	CreatedAt     time.Time
}

// IsUsed reports whether the token has already been consumed.
func (t *VerificationToken) IsUsed() bool {
	return t.UsedAt != nil
}

// IsExpired reports whether the token has expired at the given instant.
func (t *VerificationToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IssuedToken is the one-time output of token issuance. Validator is the
// hex-encoded plaintext secret destined for the outbound link; it must not
// be retained after the mail payload is built.
type IssuedToken struct {
	Selector  string
	Validator string
	ExpiresAt time.Time
}

// ConfirmationStatus is the outcome of a token confirmation attempt.
// All non-valid statuses are terminal: a rejected token requires the user to
// request a brand-new one, never a retry of the same token.
type ConfirmationStatus string

const (
	// ConfirmationValid means the token matched and the effect was applied.
	ConfirmationValid ConfirmationStatus = "valid"

	// ConfirmationNotFound means no token row exists for the selector.
	ConfirmationNotFound ConfirmationStatus = "not_found"

	// ConfirmationAlreadyUsed means the token was consumed before.
	ConfirmationAlreadyUsed ConfirmationStatus = "already_used"

	// ConfirmationExpired means the token outlived its TTL.
	ConfirmationExpired ConfirmationStatus = "expired"

	// ConfirmationInvalid means the validator did not match.
	ConfirmationInvalid ConfirmationStatus = "invalid"
)

// ConfirmTokenInput carries a confirmation attempt.
// NewPassword is required only for the password_reset purpose.
type ConfirmTokenInput struct {
	Selector    string
	Validator   string
	Purpose     cryptoDomain.Purpose
	NewPassword string
}

// ConfirmTokenOutput reports the confirmation outcome. SubjectID is set only
// for ConfirmationValid.
type ConfirmTokenOutput struct {
	Status    ConfirmationStatus
	SubjectID uuid.UUID
}
