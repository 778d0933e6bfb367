package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
	"github.com/allisson/identity/internal/testutil"
)

func testVerificationToken(t *testing.T, subjectID uuid.UUID, purpose cryptoDomain.Purpose) *identityDomain.VerificationToken {
	t.Helper()

	validatorHash := make([]byte, 32)
	_, err := rand.Read(validatorHash)
	require.NoError(t, err)

	selector := make([]byte, 6)
	_, err = rand.Read(selector)
	require.NoError(t, err)

	return &identityDomain.VerificationToken{
		Selector:      hex.EncodeToString(selector),
		ValidatorHash: validatorHash,
		KeyVersion:    "v20260101000000",
		SubjectID:     subjectID,
		Purpose:       purpose,
		ExpiresAt:     time.Now().UTC().Add(48 * time.Hour),
		CreatedAt:     time.Now().UTC(),
	}
}

func TestNewPostgreSQLTokenRepository(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewPostgreSQLTokenRepository(db)
	assert.NotNil(t, repo)
	assert.IsType(t, &PostgreSQLTokenRepository{}, repo)
}

func TestPostgreSQLTokenRepository_Create(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	ctx := context.Background()
	userID := testutil.CreateTestUser(t, db, "postgres")

	repo := NewPostgreSQLTokenRepository(db)
	token := testVerificationToken(t, userID, cryptoDomain.PurposeEmailVerify)

	err := repo.Create(ctx, token)
	require.NoError(t, err)

	retrieved, err := repo.GetBySelectorForUpdate(ctx, token.Selector)
	require.NoError(t, err)

	assert.Equal(t, token.Selector, retrieved.Selector)
	assert.Equal(t, token.ValidatorHash, retrieved.ValidatorHash)
	assert.Equal(t, token.KeyVersion, retrieved.KeyVersion)
	assert.Equal(t, token.SubjectID, retrieved.SubjectID)
	assert.Equal(t, token.Purpose, retrieved.Purpose)
	assert.WithinDuration(t, token.ExpiresAt, retrieved.ExpiresAt, time.Second)
	assert.Nil(t, retrieved.UsedAt)
}

func TestPostgreSQLTokenRepository_GetBySelectorForUpdate_NotFound(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLTokenRepository(db)

	token, err := repo.GetBySelectorForUpdate(context.Background(), "missing-selector")

	assert.Error(t, err)
	assert.Nil(t, token)
	assert.ErrorIs(t, err, identityDomain.ErrTokenNotFound)
}

func TestPostgreSQLTokenRepository_MarkUsed(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	ctx := context.Background()
	userID := testutil.CreateTestUser(t, db, "postgres")

	repo := NewPostgreSQLTokenRepository(db)
	token := testVerificationToken(t, userID, cryptoDomain.PurposePasswordReset)

	err := repo.Create(ctx, token)
	require.NoError(t, err)

	usedAt := time.Now().UTC()
	err = repo.MarkUsed(ctx, token.Selector, usedAt)
	require.NoError(t, err)

	// The consumed row keeps the selector but loses the hash material
	retrieved, err := repo.GetBySelectorForUpdate(ctx, token.Selector)
	require.NoError(t, err)
	assert.Nil(t, retrieved.ValidatorHash)
	assert.Empty(t, retrieved.KeyVersion)
	require.NotNil(t, retrieved.UsedAt)
	assert.WithinDuration(t, usedAt, *retrieved.UsedAt, time.Second)
	assert.True(t, retrieved.IsUsed())
}

func TestPostgreSQLTokenRepository_DeleteBySubjectAndPurpose(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	ctx := context.Background()
	userID := testutil.CreateTestUser(t, db, "postgres")

	repo := NewPostgreSQLTokenRepository(db)

	// Outstanding token for the purpose
	oldToken := testVerificationToken(t, userID, cryptoDomain.PurposeEmailVerify)
	require.NoError(t, repo.Create(ctx, oldToken))

	// Token for a different purpose must survive
	otherToken := testVerificationToken(t, userID, cryptoDomain.PurposePasswordReset)
	require.NoError(t, repo.Create(ctx, otherToken))

	// Consumed token for the same purpose must survive (audit trail)
	usedToken := testVerificationToken(t, userID, cryptoDomain.PurposeEmailVerify)
	require.NoError(t, repo.Create(ctx, usedToken))
	require.NoError(t, repo.MarkUsed(ctx, usedToken.Selector, time.Now().UTC()))

	err := repo.DeleteBySubjectAndPurpose(ctx, userID, cryptoDomain.PurposeEmailVerify)
	require.NoError(t, err)

	_, err = repo.GetBySelectorForUpdate(ctx, oldToken.Selector)
	assert.ErrorIs(t, err, identityDomain.ErrTokenNotFound)

	_, err = repo.GetBySelectorForUpdate(ctx, otherToken.Selector)
	assert.NoError(t, err)

	_, err = repo.GetBySelectorForUpdate(ctx, usedToken.Selector)
	assert.NoError(t, err)
}

func TestPostgreSQLTokenRepository_DeleteExpired(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	ctx := context.Background()
	userID := testutil.CreateTestUser(t, db, "postgres")

	repo := NewPostgreSQLTokenRepository(db)

	expiredToken := testVerificationToken(t, userID, cryptoDomain.PurposeEmailVerify)
	expiredToken.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, expiredToken))

	liveToken := testVerificationToken(t, userID, cryptoDomain.PurposePasswordReset)
	require.NoError(t, repo.Create(ctx, liveToken))

	deleted, err := repo.DeleteExpired(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.GetBySelectorForUpdate(ctx, expiredToken.Selector)
	assert.ErrorIs(t, err, identityDomain.ErrTokenNotFound)

	_, err = repo.GetBySelectorForUpdate(ctx, liveToken.Selector)
	assert.NoError(t, err)
}
