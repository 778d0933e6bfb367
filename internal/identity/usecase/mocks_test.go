package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
	mailerDomain "github.com/allisson/identity/internal/mailer/domain"
)

// MockTxManager is a mock implementation of database.TxManager that executes
// the given function so the code under test runs as if inside a transaction.
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

// MockIdentityRepository is a mock implementation of IdentityRepository
type MockIdentityRepository struct {
	mock.Mock
}

func (m *MockIdentityRepository) Create(ctx context.Context, record *identityDomain.IdentityRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockIdentityRepository) FindByEmailHashes(
	ctx context.Context,
	hashes [][]byte,
) (*identityDomain.IdentityRecord, error) {
	args := m.Called(ctx, hashes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.IdentityRecord), args.Error(1)
}

func (m *MockIdentityRepository) GetBySubject(
	ctx context.Context,
	subject identityDomain.Subject,
) (*identityDomain.IdentityRecord, error) {
	args := m.Called(ctx, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.IdentityRecord), args.Error(1)
}

func (m *MockIdentityRepository) Update(ctx context.Context, record *identityDomain.IdentityRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// MockTokenRepository is a mock implementation of TokenRepository
type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Create(ctx context.Context, token *identityDomain.VerificationToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepository) GetBySelectorForUpdate(
	ctx context.Context,
	selector string,
) (*identityDomain.VerificationToken, error) {
	args := m.Called(ctx, selector)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.VerificationToken), args.Error(1)
}

func (m *MockTokenRepository) MarkUsed(ctx context.Context, selector string, usedAt time.Time) error {
	args := m.Called(ctx, selector, usedAt)
	return args.Error(0)
}

func (m *MockTokenRepository) DeleteBySubjectAndPurpose(
	ctx context.Context,
	subjectID uuid.UUID,
	purpose cryptoDomain.Purpose,
) error {
	args := m.Called(ctx, subjectID, purpose)
	return args.Error(0)
}

func (m *MockTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identityDomain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Get(ctx context.Context, userID uuid.UUID) (*identityDomain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identityDomain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockSubscriberRepository is a mock implementation of SubscriberRepository
type MockSubscriberRepository struct {
	mock.Mock
}

func (m *MockSubscriberRepository) Create(ctx context.Context, subscriber *identityDomain.Subscriber) error {
	args := m.Called(ctx, subscriber)
	return args.Error(0)
}

func (m *MockSubscriberRepository) Get(
	ctx context.Context,
	subscriberID uuid.UUID,
) (*identityDomain.Subscriber, error) {
	args := m.Called(ctx, subscriberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.Subscriber), args.Error(1)
}

func (m *MockSubscriberRepository) Update(ctx context.Context, subscriber *identityDomain.Subscriber) error {
	args := m.Called(ctx, subscriber)
	return args.Error(0)
}

// MockTokenIssuer is a mock implementation of identityService.TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(
	purpose cryptoDomain.Purpose,
	subjectID uuid.UUID,
	ttl time.Duration,
) (*identityDomain.VerificationToken, *identityDomain.IssuedToken, error) {
	args := m.Called(purpose, subjectID, ttl)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*identityDomain.VerificationToken), args.Get(1).(*identityDomain.IssuedToken), args.Error(2)
}

// MockBlindIndexer is a mock implementation of cryptoService.BlindIndexer
type MockBlindIndexer struct {
	mock.Mock
}

func (m *MockBlindIndexer) HashForWrite(
	purpose cryptoDomain.Purpose,
	plaintext []byte,
) (cryptoDomain.BlindIndexValue, error) {
	args := m.Called(purpose, plaintext)
	return args.Get(0).(cryptoDomain.BlindIndexValue), args.Error(1)
}

func (m *MockBlindIndexer) HashCandidates(
	purpose cryptoDomain.Purpose,
	plaintext []byte,
) ([]cryptoDomain.BlindIndexValue, error) {
	args := m.Called(purpose, plaintext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cryptoDomain.BlindIndexValue), args.Error(1)
}

// MockFieldCipher is a mock implementation of cryptoService.FieldCipher
type MockFieldCipher struct {
	mock.Mock
}

func (m *MockFieldCipher) Encrypt(
	purpose cryptoDomain.Purpose,
	plaintext []byte,
) (cryptoDomain.EncryptedField, error) {
	args := m.Called(purpose, plaintext)
	return args.Get(0).(cryptoDomain.EncryptedField), args.Error(1)
}

func (m *MockFieldCipher) Decrypt(
	purpose cryptoDomain.Purpose,
	field cryptoDomain.EncryptedField,
) (*cryptoDomain.Secret, error) {
	args := m.Called(purpose, field)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.Secret), args.Error(1)
}

// MockMailer is a mock implementation of mailerUsecase.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Enqueue(
	ctx context.Context,
	template string,
	payload *mailerDomain.MailPayload,
) (uuid.UUID, error) {
	args := m.Called(ctx, template, payload)
	return args.Get(0).(uuid.UUID), args.Error(1)
}
