package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
)

func TestMySQLTokenRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	repo := NewMySQLTokenRepository(db)
	ctx := context.Background()

	subjectID := uuid.Must(uuid.NewV7())
	idBytes, err := subjectID.MarshalBinary()
	require.NoError(t, err)

	token := &identityDomain.VerificationToken{
		Selector:      "a1b2c3d4e5f6",
		ValidatorHash: []byte("validator-hash-32-bytes-aaaaaaaa"),
		KeyVersion:    "v20260101000000",
		SubjectID:     subjectID,
		Purpose:       cryptoDomain.PurposeEmailVerify,
		ExpiresAt:     time.Now().UTC().Add(48 * time.Hour),
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO verification_tokens")).
		WithArgs(token.Selector, token.ValidatorHash, token.KeyVersion, idBytes,
			string(token.Purpose), token.ExpiresAt, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Create(ctx, token)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLTokenRepository_GetBySelectorForUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	repo := NewMySQLTokenRepository(db)
	ctx := context.Background()

	subjectID := uuid.Must(uuid.NewV7())
	idBytes, err := subjectID.MarshalBinary()
	require.NoError(t, err)

	now := time.Now().UTC()
	expiresAt := now.Add(time.Hour)

	t.Run("locks and returns the row", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"selector", "validator_hash", "key_version", "subject_id", "purpose", "expires_at", "used_at", "created_at",
		}).AddRow("a1b2c3d4e5f6", []byte("hash"), "v20260101000000", idBytes,
			"password_reset", expiresAt, nil, now)

		mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
			WithArgs("a1b2c3d4e5f6").
			WillReturnRows(rows)

		token, err := repo.GetBySelectorForUpdate(ctx, "a1b2c3d4e5f6")

		require.NoError(t, err)
		assert.Equal(t, "a1b2c3d4e5f6", token.Selector)
		assert.Equal(t, []byte("hash"), token.ValidatorHash)
		assert.Equal(t, "v20260101000000", token.KeyVersion)
		assert.Equal(t, subjectID, token.SubjectID)
		assert.Equal(t, cryptoDomain.PurposePasswordReset, token.Purpose)
		assert.Nil(t, token.UsedAt)
	})

	t.Run("consumed row scans with nil hash", func(t *testing.T) {
		usedAt := now.Add(-time.Minute)
		rows := sqlmock.NewRows([]string{
			"selector", "validator_hash", "key_version", "subject_id", "purpose", "expires_at", "used_at", "created_at",
		}).AddRow("deadbeef0000", nil, nil, idBytes, "password_reset", expiresAt, usedAt, now)

		mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
			WithArgs("deadbeef0000").
			WillReturnRows(rows)

		token, err := repo.GetBySelectorForUpdate(ctx, "deadbeef0000")

		require.NoError(t, err)
		assert.Nil(t, token.ValidatorHash)
		assert.Empty(t, token.KeyVersion)
		assert.True(t, token.IsUsed())
	})

	t.Run("missing selector", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
			WithArgs("missing00000").
			WillReturnRows(sqlmock.NewRows([]string{
				"selector", "validator_hash", "key_version", "subject_id", "purpose", "expires_at", "used_at", "created_at",
			}))

		token, err := repo.GetBySelectorForUpdate(ctx, "missing00000")

		assert.Nil(t, token)
		assert.ErrorIs(t, err, identityDomain.ErrTokenNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLTokenRepository_MarkUsed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	repo := NewMySQLTokenRepository(db)
	ctx := context.Background()
	usedAt := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("SET validator_hash = NULL, key_version = NULL, used_at = ?")).
		WithArgs(usedAt, "a1b2c3d4e5f6").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.MarkUsed(ctx, "a1b2c3d4e5f6", usedAt)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLTokenRepository_DeleteBySubjectAndPurpose(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	repo := NewMySQLTokenRepository(db)
	ctx := context.Background()

	subjectID := uuid.Must(uuid.NewV7())
	idBytes, err := subjectID.MarshalBinary()
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM verification_tokens WHERE subject_id = ? AND purpose = ? AND used_at IS NULL")).
		WithArgs(idBytes, string(cryptoDomain.PurposeEmailVerify)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.DeleteBySubjectAndPurpose(ctx, subjectID, cryptoDomain.PurposeEmailVerify)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLTokenRepository_DeleteExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	repo := NewMySQLTokenRepository(db)
	ctx := context.Background()
	before := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM verification_tokens WHERE expires_at < ?")).
		WithArgs(before).
		WillReturnResult(sqlmock.NewResult(0, 3))

	deleted, err := repo.DeleteExpired(ctx, before)

	assert.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
