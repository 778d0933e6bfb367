package usecase

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
)

type lookupMocks struct {
	txManager    *MockTxManager
	identityRepo *MockIdentityRepository
	blindIndexer *MockBlindIndexer
	fieldCipher  *MockFieldCipher
}

func newLookupUseCaseForTest() (*LookupUseCaseImpl, *lookupMocks) {
	m := &lookupMocks{
		txManager:    &MockTxManager{},
		identityRepo: &MockIdentityRepository{},
		blindIndexer: &MockBlindIndexer{},
		fieldCipher:  &MockFieldCipher{},
	}

	uc := NewLookupUseCase(m.txManager, m.identityRepo, m.blindIndexer, m.fieldCipher, slog.Default())

	return uc, m
}

func TestLookupUseCase_LookupBySecret(t *testing.T) {
	ctx := context.Background()
	email := "reader@example.com"

	t.Run("resolves the subject behind an email", func(t *testing.T) {
		uc, m := newLookupUseCaseForTest()
		subjectID := uuid.Must(uuid.NewV7())
		candidates := []cryptoDomain.BlindIndexValue{testBlindIndexValue("v1")}
		record := &identityDomain.IdentityRecord{
			SubjectID:   subjectID,
			SubjectKind: identityDomain.SubjectKindUser,
			EmailHash:   testBlindIndexValue("v1"),
			EmailSealed: testEncryptedField("v1"),
		}

		m.blindIndexer.On("HashCandidates", cryptoDomain.PurposeEmailIndex, []byte(email)).
			Return(candidates, nil).Once()
		m.identityRepo.On("FindByEmailHashes", ctx, [][]byte{candidates[0].Hash}).
			Return(record, nil).Once()

		subject, err := uc.LookupBySecret(ctx, "Reader@Example.com ")
		require.NoError(t, err)
		assert.Equal(t, subjectID, subject.ID)
		assert.Equal(t, identityDomain.SubjectKindUser, subject.Kind)
		// Hash is current: no re-index
		m.identityRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("re-indexes a record found under a retired key", func(t *testing.T) {
		uc, m := newLookupUseCaseForTest()
		subjectID := uuid.Must(uuid.NewV7())
		candidates := []cryptoDomain.BlindIndexValue{testBlindIndexValue("v2"), testBlindIndexValue("v1")}
		record := &identityDomain.IdentityRecord{
			SubjectID:   subjectID,
			SubjectKind: identityDomain.SubjectKindSubscriber,
			EmailHash:   testBlindIndexValue("v1"),
			EmailSealed: testEncryptedField("v1"),
		}

		m.blindIndexer.On("HashCandidates", cryptoDomain.PurposeEmailIndex, []byte(email)).
			Return(candidates, nil).Once()
		m.identityRepo.On("FindByEmailHashes", ctx, mock.Anything).Return(record, nil).Once()

		expectTx(m.txManager, ctx)
		m.blindIndexer.On("HashForWrite", cryptoDomain.PurposeEmailIndex, []byte(email)).
			Return(testBlindIndexValue("v2"), nil).Once()
		m.fieldCipher.On("Encrypt", cryptoDomain.PurposeEmailSeal, []byte(email)).
			Return(testEncryptedField("v2"), nil).Once()
		m.identityRepo.On("Update", ctx, mock.MatchedBy(func(r *identityDomain.IdentityRecord) bool {
			return r.EmailHash.KeyVersion == "v2" && r.EmailSealed.KeyVersion == "v2"
		})).Return(nil).Once()

		subject, err := uc.LookupBySecret(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, subjectID, subject.ID)
		m.identityRepo.AssertExpectations(t)
	})

	t.Run("re-index failure does not fail the lookup", func(t *testing.T) {
		uc, m := newLookupUseCaseForTest()
		subjectID := uuid.Must(uuid.NewV7())
		candidates := []cryptoDomain.BlindIndexValue{testBlindIndexValue("v2")}
		record := &identityDomain.IdentityRecord{
			SubjectID:   subjectID,
			SubjectKind: identityDomain.SubjectKindUser,
			EmailHash:   testBlindIndexValue("v1"),
			EmailSealed: testEncryptedField("v1"),
		}

		m.blindIndexer.On("HashCandidates", cryptoDomain.PurposeEmailIndex, []byte(email)).
			Return(candidates, nil).Once()
		m.identityRepo.On("FindByEmailHashes", ctx, mock.Anything).Return(record, nil).Once()

		expectTx(m.txManager, ctx)
		m.blindIndexer.On("HashForWrite", cryptoDomain.PurposeEmailIndex, []byte(email)).
			Return(cryptoDomain.BlindIndexValue{}, cryptoDomain.ErrKeyUnavailable).Once()

		subject, err := uc.LookupBySecret(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, subjectID, subject.ID)
	})

	t.Run("unknown email returns not found", func(t *testing.T) {
		uc, m := newLookupUseCaseForTest()
		candidates := []cryptoDomain.BlindIndexValue{testBlindIndexValue("v1")}

		m.blindIndexer.On("HashCandidates", cryptoDomain.PurposeEmailIndex, []byte(email)).
			Return(candidates, nil).Once()
		m.identityRepo.On("FindByEmailHashes", ctx, mock.Anything).
			Return(nil, identityDomain.ErrIdentityNotFound).Once()

		_, err := uc.LookupBySecret(ctx, email)
		assert.ErrorIs(t, err, identityDomain.ErrIdentityNotFound)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		uc, _ := newLookupUseCaseForTest()

		_, err := uc.LookupBySecret(ctx, "not-an-email")
		assert.Error(t, err)
	})

	t.Run("fails closed when the index key is unavailable", func(t *testing.T) {
		uc, m := newLookupUseCaseForTest()

		m.blindIndexer.On("HashCandidates", cryptoDomain.PurposeEmailIndex, []byte(email)).
			Return(nil, cryptoDomain.ErrKeyUnavailable).Once()

		_, err := uc.LookupBySecret(ctx, email)
		assert.ErrorIs(t, err, cryptoDomain.ErrKeyUnavailable)
	})
}
