// Package service provides identity services: selector/validator token minting.
package service

import (
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
)

// TokenIssuer mints selector/validator token pairs.
//
// Issue returns the row to persist (validator hashed, never plaintext) and
// the one-time output carrying the plaintext validator for the outbound
// link. Persistence and supersession of prior tokens for the same
// (subject, purpose) are the caller's responsibility, inside its
// transaction.
type TokenIssuer interface {
	Issue(
		purpose cryptoDomain.Purpose,
		subjectID uuid.UUID,
		ttl time.Duration,
	) (*identityDomain.VerificationToken, *identityDomain.IssuedToken, error)
}
