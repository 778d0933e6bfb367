package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	cryptoService "github.com/allisson/identity/internal/crypto/service"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
)

// tokenIssuer implements TokenIssuer using the blind index write path for
// validator hashing, so validator hashes rotate with the same key material
// and candidate derivation as PII hashes.
type tokenIssuer struct {
	blindIndexer cryptoService.BlindIndexer
}

// NewTokenIssuer creates a new TokenIssuer.
func NewTokenIssuer(blindIndexer cryptoService.BlindIndexer) TokenIssuer {
	return &tokenIssuer{blindIndexer: blindIndexer}
}

// Issue mints a fresh selector/validator pair for a token purpose.
//
// selector = hex(6 random bytes): a public lookup handle sized for indexed
// lookup. validator = 32 random bytes: the actual secret, returned hex-encoded
// exactly once and persisted only as an HMAC under the purpose's current key.
// Fails closed when the purpose has no current key.
func (s *tokenIssuer) Issue(
	purpose cryptoDomain.Purpose,
	subjectID uuid.UUID,
	ttl time.Duration,
) (*identityDomain.VerificationToken, *identityDomain.IssuedToken, error) {
	if !identityDomain.IsTokenPurpose(purpose) {
		return nil, nil, fmt.Errorf("%w: %s", identityDomain.ErrNotTokenPurpose, purpose)
	}

	selectorBytes := make([]byte, identityDomain.SelectorSize)
	if _, err := rand.Read(selectorBytes); err != nil {
		return nil, nil, fmt.Errorf("failed to generate selector: %w", err)
	}
	selector := hex.EncodeToString(selectorBytes)

	validator := cryptoDomain.NewSecret(make([]byte, identityDomain.ValidatorSize))
	defer validator.Close()
	if _, err := rand.Read(validator.Bytes()); err != nil {
		return nil, nil, fmt.Errorf("failed to generate validator: %w", err)
	}

	hash, err := s.blindIndexer.HashForWrite(purpose, validator.Bytes())
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()

	token := &identityDomain.VerificationToken{
		Selector:      selector,
		ValidatorHash: hash.Hash,
		KeyVersion:    hash.KeyVersion,
		SubjectID:     subjectID,
		Purpose:       purpose,
		ExpiresAt:     now.Add(ttl),
		UsedAt:        nil,
		CreatedAt:     now,
	}

	issued := &identityDomain.IssuedToken{
		Selector:  selector,
		Validator: hex.EncodeToString(validator.Bytes()),
		ExpiresAt: token.ExpiresAt,
	}

	return token, issued, nil
}
