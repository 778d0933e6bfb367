package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/identity/internal/errors"
)

func testKey(purpose Purpose, version string, status KeyStatus, createdAt time.Time) *KeyMaterial {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(len(version) + i)
	}
	return &KeyMaterial{
		Purpose:   purpose,
		Version:   version,
		Status:    status,
		Key:       key,
		CreatedAt: createdAt,
	}
}

func TestKeyMaterialValidate(t *testing.T) {
	now := time.Now().UTC()

	t.Run("valid key material", func(t *testing.T) {
		k := testKey(PurposeEmailIndex, "v1", KeyStatusCurrent, now)
		assert.NoError(t, k.Validate())
	})

	t.Run("unknown purpose", func(t *testing.T) {
		k := testKey(PurposeEmailIndex, "v1", KeyStatusCurrent, now)
		k.Purpose = "credit_card"
		assert.ErrorIs(t, k.Validate(), ErrUnknownPurpose)
	})

	t.Run("wrong key size", func(t *testing.T) {
		k := testKey(PurposeEmailIndex, "v1", KeyStatusCurrent, now)
		k.Key = []byte{1, 2, 3}
		assert.ErrorIs(t, k.Validate(), ErrInvalidKeySize)
	})

	t.Run("invalid status", func(t *testing.T) {
		k := testKey(PurposeEmailIndex, "v1", KeyStatusCurrent, now)
		k.Status = "archived"
		assert.Error(t, k.Validate())
	})
}

func TestKeyring(t *testing.T) {
	now := time.Now().UTC()

	t.Run("current returns the current version", func(t *testing.T) {
		ring, err := NewKeyring([]*KeyMaterial{
			testKey(PurposeEmailIndex, "v1", KeyStatusRetired, now.Add(-48*time.Hour)),
			testKey(PurposeEmailIndex, "v2", KeyStatusCurrent, now),
		})
		require.NoError(t, err)

		current, err := ring.Current(PurposeEmailIndex)
		require.NoError(t, err)
		assert.Equal(t, "v2", current.Version)
		assert.Equal(t, KeyStatusCurrent, current.Status)
	})

	t.Run("candidates ordered current first then retired newest to oldest", func(t *testing.T) {
		ring, err := NewKeyring([]*KeyMaterial{
			testKey(PurposeEmailVerify, "v1", KeyStatusRetired, now.Add(-72*time.Hour)),
			testKey(PurposeEmailVerify, "v3", KeyStatusCurrent, now),
			testKey(PurposeEmailVerify, "v2", KeyStatusRetired, now.Add(-24*time.Hour)),
		})
		require.NoError(t, err)

		candidates, err := ring.Candidates(PurposeEmailVerify)
		require.NoError(t, err)
		require.Len(t, candidates, 3)
		assert.Equal(t, "v3", candidates[0].Version)
		assert.Equal(t, "v2", candidates[1].Version)
		assert.Equal(t, "v1", candidates[2].Version)
	})

	t.Run("missing purpose fails closed", func(t *testing.T) {
		ring, err := NewKeyring([]*KeyMaterial{
			testKey(PurposeEmailIndex, "v1", KeyStatusCurrent, now),
		})
		require.NoError(t, err)

		_, err = ring.Current(PurposePasswordReset)
		assert.ErrorIs(t, err, ErrKeyUnavailable)

		_, err = ring.Candidates(PurposePasswordReset)
		assert.ErrorIs(t, err, ErrKeyUnavailable)
	})

	t.Run("only retired keys rejects writes but allows reads", func(t *testing.T) {
		ring, err := NewKeyring([]*KeyMaterial{
			testKey(PurposeEmailSeal, "v1", KeyStatusRetired, now),
		})
		require.NoError(t, err)

		_, err = ring.Current(PurposeEmailSeal)
		assert.ErrorIs(t, err, ErrNoCurrentKey)
		// Fail-closed condition: surfaces as 503, not a generic 500.
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)

		candidates, err := ring.Candidates(PurposeEmailSeal)
		require.NoError(t, err)
		assert.Len(t, candidates, 1)
	})

	t.Run("duplicate current versions rejected", func(t *testing.T) {
		_, err := NewKeyring([]*KeyMaterial{
			testKey(PurposeEmailIndex, "v1", KeyStatusCurrent, now),
			testKey(PurposeEmailIndex, "v2", KeyStatusCurrent, now),
		})
		assert.ErrorIs(t, err, ErrDuplicateCurrentKey)
	})

	t.Run("duplicate version identifiers rejected", func(t *testing.T) {
		_, err := NewKeyring([]*KeyMaterial{
			testKey(PurposeEmailIndex, "v1", KeyStatusCurrent, now),
			testKey(PurposeEmailIndex, "v1", KeyStatusRetired, now),
		})
		assert.Error(t, err)
	})

	t.Run("find by version", func(t *testing.T) {
		ring, err := NewKeyring([]*KeyMaterial{
			testKey(PurposeEmailSeal, "v1", KeyStatusRetired, now.Add(-time.Hour)),
			testKey(PurposeEmailSeal, "v2", KeyStatusCurrent, now),
		})
		require.NoError(t, err)

		k, ok := ring.Find(PurposeEmailSeal, "v1")
		require.True(t, ok)
		assert.Equal(t, KeyStatusRetired, k.Status)

		_, ok = ring.Find(PurposeEmailSeal, "v9")
		assert.False(t, ok)
	})

	t.Run("close zeroes key material", func(t *testing.T) {
		k := testKey(PurposeEmailIndex, "v1", KeyStatusCurrent, now)
		raw := k.Key
		ring, err := NewKeyring([]*KeyMaterial{k})
		require.NoError(t, err)

		ring.Close()
		for _, v := range raw {
			assert.Equal(t, byte(0), v)
		}
		_, err = ring.Current(PurposeEmailIndex)
		assert.ErrorIs(t, err, ErrKeyUnavailable)
	})
}

func TestParsePurpose(t *testing.T) {
	for _, p := range Purposes() {
		parsed, err := ParsePurpose(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}

	_, err := ParsePurpose("session")
	assert.ErrorIs(t, err, ErrUnknownPurpose)
}
