package domain

import (
	"github.com/allisson/identity/internal/errors"
)

// Identity domain error definitions.
//
// The four token errors are deliberately collapsed into one neutral
// user-facing message ("link invalid or expired") by the HTTP layer, so an
// attacker cannot distinguish a wrong validator from an unknown selector.
var (
	// ErrTokenNotFound indicates no token row exists for the selector.
	ErrTokenNotFound = errors.Wrap(errors.ErrNotFound, "token not found")

	// ErrTokenExpired indicates the token outlived its TTL.
	ErrTokenExpired = errors.Wrap(errors.ErrInvalidInput, "token expired")

	// ErrTokenAlreadyUsed indicates the token was consumed before.
	ErrTokenAlreadyUsed = errors.Wrap(errors.ErrInvalidInput, "token already used")

	// ErrTokenInvalid indicates the validator did not match.
	ErrTokenInvalid = errors.Wrap(errors.ErrInvalidInput, "token invalid")

	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrSubscriberNotFound indicates the subscriber does not exist.
	ErrSubscriberNotFound = errors.Wrap(errors.ErrNotFound, "subscriber not found")

	// ErrIdentityNotFound indicates no identity record matched the lookup hashes.
	ErrIdentityNotFound = errors.Wrap(errors.ErrNotFound, "identity not found")

	// ErrPasswordRequired indicates a password reset confirmation arrived
	// without a new password.
	ErrPasswordRequired = errors.Wrap(errors.ErrInvalidInput, "new password required")

	// ErrNotTokenPurpose indicates a token operation was attempted with a
	// PII purpose (email_index/email_seal) instead of a token purpose.
	ErrNotTokenPurpose = errors.Wrap(errors.ErrInvalidInput, "purpose does not issue tokens")
)
