package domain

import (
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
)

// IdentityRecord binds a subject to its encrypted email address and the blind
// index that makes the address searchable. The hash and the ciphertext are
// independent values with independent key versions: the hash enables equality
// search, the ciphertext enables later decryption for display.
//
// Invariant: the record stays searchable via any hash computed from a
// still-valid (current or retired) key version of the email_index purpose.
type IdentityRecord struct {
	SubjectID   uuid.UUID
	SubjectKind SubjectKind
	EmailHash   cryptoDomain.BlindIndexValue
	EmailSealed cryptoDomain.EncryptedField
	CreatedAt   time.Time
}
