// Package usecase implements the identity business logic: registration,
// token request flows, token confirmation, and blind-index email lookup.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
)

// Config holds identity use case configuration.
type Config struct {
	EmailVerifyTokenTTL   time.Duration
	PasswordResetTokenTTL time.Duration
	NewsletterTokenTTL    time.Duration

	// BaseURL is the public origin used to build one-time confirmation links.
	BaseURL string
}

// IdentityRepository defines identity lookup repository operations
type IdentityRepository interface {
	Create(ctx context.Context, record *identityDomain.IdentityRecord) error
	FindByEmailHashes(ctx context.Context, hashes [][]byte) (*identityDomain.IdentityRecord, error)
	GetBySubject(ctx context.Context, subject identityDomain.Subject) (*identityDomain.IdentityRecord, error)
	Update(ctx context.Context, record *identityDomain.IdentityRecord) error
}

// TokenRepository defines verification token repository operations
type TokenRepository interface {
	Create(ctx context.Context, token *identityDomain.VerificationToken) error
	GetBySelectorForUpdate(ctx context.Context, selector string) (*identityDomain.VerificationToken, error)
	MarkUsed(ctx context.Context, selector string, usedAt time.Time) error
	DeleteBySubjectAndPurpose(ctx context.Context, subjectID uuid.UUID, purpose cryptoDomain.Purpose) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// UserRepository defines user repository operations
type UserRepository interface {
	Create(ctx context.Context, user *identityDomain.User) error
	Get(ctx context.Context, userID uuid.UUID) (*identityDomain.User, error)
	Update(ctx context.Context, user *identityDomain.User) error
}

// SubscriberRepository defines newsletter subscriber repository operations
type SubscriberRepository interface {
	Create(ctx context.Context, subscriber *identityDomain.Subscriber) error
	Get(ctx context.Context, subscriberID uuid.UUID) (*identityDomain.Subscriber, error)
	Update(ctx context.Context, subscriber *identityDomain.Subscriber) error
}

// RegisterInput contains the input data for account registration
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountUseCase defines account-related identity operations.
//
// Register and RequestPasswordReset are enumeration-safe: they return nil
// whether or not the email is known, and the caller's response must not
// depend on which branch was taken.
type AccountUseCase interface {
	Register(ctx context.Context, input RegisterInput) error
	RequestVerification(ctx context.Context, subjectID uuid.UUID) error
	RequestPasswordReset(ctx context.Context, email string) error
}

// NewsletterUseCase defines newsletter double-opt-in operations, with the
// same enumeration-safety contract as AccountUseCase.
type NewsletterUseCase interface {
	Subscribe(ctx context.Context, email string) error
	RequestUnsubscribe(ctx context.Context, email string) error
}

// ConfirmUseCase verifies and consumes one-time tokens.
type ConfirmUseCase interface {
	Confirm(ctx context.Context, input identityDomain.ConfirmTokenInput) (*identityDomain.ConfirmTokenOutput, error)
}

// LookupUseCase resolves an email address to its subject via the blind index.
type LookupUseCase interface {
	LookupBySecret(ctx context.Context, email string) (*identityDomain.Subject, error)
}

// MaintenanceUseCase covers periodic housekeeping operations.
type MaintenanceUseCase interface {
	DeleteExpiredTokens(ctx context.Context) (int64, error)
}
