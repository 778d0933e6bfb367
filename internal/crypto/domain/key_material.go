package domain

import (
	"fmt"
	"sort"
	"time"
)

// KeyStatus marks whether a key version is used for new writes or retained
// only to validate data written under it.
type KeyStatus string

const (
	// KeyStatusCurrent marks the single key version used for new writes.
	KeyStatusCurrent KeyStatus = "current"

	// KeyStatusRetired marks superseded key versions kept for reads only.
	KeyStatusRetired KeyStatus = "retired"
)

// IsValid reports whether s is a known key status.
func (s KeyStatus) IsValid() bool {
	return s == KeyStatusCurrent || s == KeyStatusRetired
}

// KeyMaterial represents one versioned symmetric key for a purpose.
//
// Key material is loaded read-only once per process and never mutated;
// rotation happens out-of-band by adding a new key file and marking the old
// one retired, picked up on next process start.
//
// Fields:
//   - Purpose: what this key protects (blind index, PII seal, a token flow)
//   - Version: unique version identifier within the purpose (e.g., "v2")
//   - Status: current (used for writes) or retired (reads only)
//   - Key: the raw 32-byte key material
//   - CreatedAt: when the key was generated, used to order retired versions
type KeyMaterial struct {
	Purpose   Purpose
	Version   string
	Status    KeyStatus
	Key       []byte
	CreatedAt time.Time
}

// Validate checks the key material invariants.
func (k *KeyMaterial) Validate() error {
	if !k.Purpose.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownPurpose, k.Purpose)
	}
	if k.Version == "" {
		return fmt.Errorf("%w: empty key version", ErrInvalidKeySize)
	}
	if !k.Status.IsValid() {
		return fmt.Errorf("invalid key status %q for %s/%s", k.Status, k.Purpose, k.Version)
	}
	if len(k.Key) != KeySize {
		return fmt.Errorf("%w: key %s/%s must be %d bytes, got %d",
			ErrInvalidKeySize, k.Purpose, k.Version, KeySize, len(k.Key))
	}
	return nil
}

// Keyring holds all loaded key material, indexed by purpose.
//
// The keyring is immutable after construction and safe for concurrent reads.
// Candidates are pre-sorted at construction time: current first, then retired
// versions newest-to-oldest, so rotation-aware read paths can iterate in the
// order most likely to match.
type Keyring struct {
	keys map[Purpose][]*KeyMaterial
}

// NewKeyring builds a keyring from loaded key material.
//
// Enforced invariants:
//   - every entry validates (known purpose, 32-byte key, known status)
//   - at most one current version per purpose (ErrDuplicateCurrentKey)
//   - version identifiers are unique within a purpose
//
// A purpose with only retired keys is allowed at construction time; writes
// against it fail later with ErrNoCurrentKey while reads keep working.
func NewKeyring(keys []*KeyMaterial) (*Keyring, error) {
	byPurpose := make(map[Purpose][]*KeyMaterial)

	for _, k := range keys {
		if err := k.Validate(); err != nil {
			return nil, err
		}

		for _, existing := range byPurpose[k.Purpose] {
			if existing.Version == k.Version {
				return nil, fmt.Errorf(
					"duplicate key version %s for purpose %s", k.Version, k.Purpose)
			}
			if existing.Status == KeyStatusCurrent && k.Status == KeyStatusCurrent {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateCurrentKey, k.Purpose)
			}
		}

		byPurpose[k.Purpose] = append(byPurpose[k.Purpose], k)
	}

	// Order candidates: current first, then retired newest-to-oldest.
	for _, candidates := range byPurpose {
		sort.SliceStable(candidates, func(i, j int) bool {
			a, b := candidates[i], candidates[j]
			if a.Status != b.Status {
				return a.Status == KeyStatusCurrent
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.Version > b.Version
		})
	}

	return &Keyring{keys: byPurpose}, nil
}

// Current returns the current key for a purpose.
// Returns ErrKeyUnavailable if the purpose has no key material at all, or
// ErrNoCurrentKey if only retired versions exist.
func (r *Keyring) Current(purpose Purpose) (*KeyMaterial, error) {
	candidates, ok := r.keys[purpose]
	if !ok || len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrKeyUnavailable, purpose)
	}
	if candidates[0].Status != KeyStatusCurrent {
		return nil, fmt.Errorf("%w: %s", ErrNoCurrentKey, purpose)
	}
	return candidates[0], nil
}

// Candidates returns all key versions for a purpose, current first, then
// retired newest-to-oldest. Returns ErrKeyUnavailable for an empty set.
func (r *Keyring) Candidates(purpose Purpose) ([]*KeyMaterial, error) {
	candidates, ok := r.keys[purpose]
	if !ok || len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrKeyUnavailable, purpose)
	}
	return candidates, nil
}

// Find returns the key material for an exact (purpose, version) pair.
func (r *Keyring) Find(purpose Purpose, version string) (*KeyMaterial, bool) {
	for _, k := range r.keys[purpose] {
		if k.Version == version {
			return k, true
		}
	}
	return nil, false
}

// Close zeroes all key material. The keyring must not be used afterwards;
// call during application shutdown.
func (r *Keyring) Close() {
	for _, candidates := range r.keys {
		for _, k := range candidates {
			Zero(k.Key)
		}
	}
	r.keys = nil
}
