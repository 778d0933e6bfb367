package service

import (
	"crypto/hmac"
	"crypto/sha256"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
)

// BlindIndexService implements BlindIndexer using HMAC-SHA256 keyed by the
// keyring.
//
// HMAC, not a plain hash, is mandatory here: a keyed hash prevents offline
// dictionary attacks against the index even if the stored hash values leak.
// The lookup protocol is a single equality query of the form
// `WHERE hash IN (candidate1, candidate2, ...)`, which finds records written
// under older key versions without ever decrypting or comparing plaintext.
type BlindIndexService struct {
	keyring *cryptoDomain.Keyring
}

// NewBlindIndex creates a new BlindIndexService backed by the given keyring.
func NewBlindIndex(keyring *cryptoDomain.Keyring) *BlindIndexService {
	return &BlindIndexService{keyring: keyring}
}

// HashForWrite hashes plaintext with the current key for the purpose and
// reports the key version used. Fails closed when the purpose has no current
// key.
func (s *BlindIndexService) HashForWrite(
	purpose cryptoDomain.Purpose,
	plaintext []byte,
) (cryptoDomain.BlindIndexValue, error) {
	key, err := s.keyring.Current(purpose)
	if err != nil {
		return cryptoDomain.BlindIndexValue{}, err
	}

	return cryptoDomain.BlindIndexValue{
		Hash:       computeHMAC(key.Key, plaintext),
		KeyVersion: key.Version,
	}, nil
}

// HashCandidates hashes plaintext with every candidate key for the purpose,
// current first, then retired newest-to-oldest. Results are de-duplicated by
// hash value to avoid redundant query predicates.
func (s *BlindIndexService) HashCandidates(
	purpose cryptoDomain.Purpose,
	plaintext []byte,
) ([]cryptoDomain.BlindIndexValue, error) {
	candidates, err := s.keyring.Candidates(purpose)
	if err != nil {
		return nil, err
	}

	values := make([]cryptoDomain.BlindIndexValue, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))

	for _, key := range candidates {
		hash := computeHMAC(key.Key, plaintext)
		if _, ok := seen[string(hash)]; ok {
			continue
		}
		seen[string(hash)] = struct{}{}
		values = append(values, cryptoDomain.BlindIndexValue{
			Hash:       hash,
			KeyVersion: key.Version,
		})
	}

	return values, nil
}

// computeHMAC computes HMAC-SHA256 of data under key.
func computeHMAC(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
