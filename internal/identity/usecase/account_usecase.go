package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/allisson/go-pwdhash"
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	cryptoService "github.com/allisson/identity/internal/crypto/service"
	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
	identityService "github.com/allisson/identity/internal/identity/service"
	mailerDomain "github.com/allisson/identity/internal/mailer/domain"
	mailerUsecase "github.com/allisson/identity/internal/mailer/usecase"
	appValidation "github.com/allisson/identity/internal/validation"
)

// AccountUseCaseImpl handles account registration and token request flows.
type AccountUseCaseImpl struct {
	config         Config
	txManager      database.TxManager
	identityRepo   IdentityRepository
	tokenRepo      TokenRepository
	userRepo       UserRepository
	tokenIssuer    identityService.TokenIssuer
	blindIndexer   cryptoService.BlindIndexer
	fieldCipher    cryptoService.FieldCipher
	mailer         mailerUsecase.Mailer
	passwordHasher *pwdhash.PasswordHasher
}

// NewAccountUseCase creates a new AccountUseCaseImpl
func NewAccountUseCase(
	config Config,
	txManager database.TxManager,
	identityRepo IdentityRepository,
	tokenRepo TokenRepository,
	userRepo UserRepository,
	tokenIssuer identityService.TokenIssuer,
	blindIndexer cryptoService.BlindIndexer,
	fieldCipher cryptoService.FieldCipher,
	mailer mailerUsecase.Mailer,
) (*AccountUseCaseImpl, error) {
	// Interactive policy for user-facing password hashing
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}

	return &AccountUseCaseImpl{
		config:         config,
		txManager:      txManager,
		identityRepo:   identityRepo,
		tokenRepo:      tokenRepo,
		userRepo:       userRepo,
		tokenIssuer:    tokenIssuer,
		blindIndexer:   blindIndexer,
		fieldCipher:    fieldCipher,
		mailer:         mailer,
		passwordHasher: hasher,
	}, nil
}

// normalizeEmail canonicalizes an email address before hashing so that
// lookups are case- and whitespace-insensitive.
func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// confirmLink builds the one-time confirmation URL carried in outbound mail.
// The validator appears here and nowhere else.
func confirmLink(baseURL string, purpose cryptoDomain.Purpose, issued *identityDomain.IssuedToken) string {
	values := url.Values{}
	values.Set("selector", issued.Selector)
	values.Set("validator", issued.Validator)
	values.Set("purpose", purpose.String())
	return fmt.Sprintf("%s/v1/confirm?%s", strings.TrimSuffix(baseURL, "/"), values.Encode())
}

func validateEmail(email string) error {
	err := validation.Validate(email,
		validation.Required.Error("email is required"),
		appValidation.NotBlank,
		appValidation.Email,
		validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
	)
	return appValidation.WrapValidationError(err)
}

// passwordRules is the strength policy shared by registration and password
// reset.
func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("password is required"),
		validation.Length(8, 128).Error("password must be between 8 and 128 characters"),
		appValidation.PasswordStrength{
			MinLength:      8,
			RequireUpper:   true,
			RequireLower:   true,
			RequireNumber:  true,
			RequireSpecial: true,
		},
	}
}

func validatePassword(password string) error {
	return appValidation.WrapValidationError(validation.Validate(password, passwordRules()...))
}

// validateRegisterInput validates registration input using jellydator/validation.
func (uc *AccountUseCaseImpl) validateRegisterInput(input RegisterInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
		validation.Field(&input.Password, passwordRules()...),
	)
	return appValidation.WrapValidationError(err)
}

// issueToken supersedes any outstanding token for (subject, purpose), mints
// and persists a new one, and enqueues the outbound mail carrying the link.
// Must run inside a transaction so the token row and the mail row commit or
// roll back together.
func (uc *AccountUseCaseImpl) issueToken(
	ctx context.Context,
	purpose cryptoDomain.Purpose,
	subjectID uuid.UUID,
	ttl time.Duration,
	recipient string,
	template string,
) error {
	if err := uc.tokenRepo.DeleteBySubjectAndPurpose(ctx, subjectID, purpose); err != nil {
		return err
	}

	token, issued, err := uc.tokenIssuer.Issue(purpose, subjectID, ttl)
	if err != nil {
		return err
	}

	if err := uc.tokenRepo.Create(ctx, token); err != nil {
		return err
	}

	payload := &mailerDomain.MailPayload{
		Recipient: recipient,
		Link:      confirmLink(uc.config.BaseURL, purpose, issued),
	}

	if _, err := uc.mailer.Enqueue(ctx, template, payload); err != nil {
		return err
	}

	return nil
}

// Register creates an inactive account with its identity record, issues an
// email verification token, and enqueues the verification mail — all in one
// transaction.
//
// The response is identical whether or not the email is already registered:
// a duplicate registration silently does nothing, and the existing account
// owner keeps control of the address.
func (uc *AccountUseCaseImpl) Register(ctx context.Context, input RegisterInput) error {
	if err := uc.validateRegisterInput(input); err != nil {
		return err
	}

	email := normalizeEmail(input.Email)

	// Crypto material is derived before the transaction: a missing current
	// key fails the whole request closed before any row is written.
	candidates, err := uc.blindIndexer.HashCandidates(cryptoDomain.PurposeEmailIndex, []byte(email))
	if err != nil {
		return err
	}

	emailHash, err := uc.blindIndexer.HashForWrite(cryptoDomain.PurposeEmailIndex, []byte(email))
	if err != nil {
		return err
	}

	emailSealed, err := uc.fieldCipher.Encrypt(cryptoDomain.PurposeEmailSeal, []byte(email))
	if err != nil {
		return err
	}

	passwordHash, err := uc.passwordHasher.Hash([]byte(input.Password))
	if err != nil {
		return apperrors.Wrap(err, "failed to hash password")
	}

	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		_, err := uc.identityRepo.FindByEmailHashes(ctx, hashValues(candidates))
		if err == nil {
			// Email already registered: neutral no-op
			return nil
		}
		if !apperrors.Is(err, identityDomain.ErrIdentityNotFound) {
			return err
		}

		user := &identityDomain.User{
			ID:           uuid.Must(uuid.NewV7()),
			PasswordHash: passwordHash,
			IsActive:     false,
		}
		if err := uc.userRepo.Create(ctx, user); err != nil {
			return err
		}

		record := &identityDomain.IdentityRecord{
			SubjectID:   user.ID,
			SubjectKind: identityDomain.SubjectKindUser,
			EmailHash:   emailHash,
			EmailSealed: emailSealed,
		}
		if err := uc.identityRepo.Create(ctx, record); err != nil {
			return err
		}

		return uc.issueToken(ctx, cryptoDomain.PurposeEmailVerify, user.ID,
			uc.config.EmailVerifyTokenTTL, email, mailerDomain.TemplateEmailVerify)
	})
}

// RequestVerification re-issues the email verification token for an existing
// account, superseding any outstanding one. Already-active and unknown
// accounts are a silent no-op: the answer never reveals whether the subject
// exists.
func (uc *AccountUseCaseImpl) RequestVerification(ctx context.Context, subjectID uuid.UUID) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		user, err := uc.userRepo.Get(ctx, subjectID)
		if err != nil {
			if apperrors.Is(err, identityDomain.ErrUserNotFound) {
				// Unknown subject: neutral no-op
				return nil
			}
			return err
		}

		if user.IsActive {
			return nil
		}

		record, err := uc.identityRepo.GetBySubject(ctx, identityDomain.Subject{
			ID:   user.ID,
			Kind: identityDomain.SubjectKindUser,
		})
		if err != nil {
			if apperrors.Is(err, identityDomain.ErrIdentityNotFound) {
				return nil
			}
			return err
		}

		email, err := uc.fieldCipher.Decrypt(cryptoDomain.PurposeEmailSeal, record.EmailSealed)
		if err != nil {
			return err
		}
		defer email.Close()

		return uc.issueToken(ctx, cryptoDomain.PurposeEmailVerify, user.ID,
			uc.config.EmailVerifyTokenTTL, string(email.Bytes()), mailerDomain.TemplateEmailVerify)
	})
}

// RequestPasswordReset issues a password reset token for the account owning
// the email, if any. The response is identical whether or not the email is
// known.
func (uc *AccountUseCaseImpl) RequestPasswordReset(ctx context.Context, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}

	normalized := normalizeEmail(email)

	candidates, err := uc.blindIndexer.HashCandidates(cryptoDomain.PurposeEmailIndex, []byte(normalized))
	if err != nil {
		return err
	}

	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		record, err := uc.identityRepo.FindByEmailHashes(ctx, hashValues(candidates))
		if err != nil {
			if apperrors.Is(err, identityDomain.ErrIdentityNotFound) {
				// Unknown email: neutral no-op
				return nil
			}
			return err
		}

		if record.SubjectKind != identityDomain.SubjectKindUser {
			return nil
		}

		return uc.issueToken(ctx, cryptoDomain.PurposePasswordReset, record.SubjectID,
			uc.config.PasswordResetTokenTTL, normalized, mailerDomain.TemplatePasswordReset)
	})
}

// hashValues extracts the raw hash bytes from blind index candidates for the
// repository IN query.
func hashValues(candidates []cryptoDomain.BlindIndexValue) [][]byte {
	hashes := make([][]byte, len(candidates))
	for i, c := range candidates {
		hashes[i] = c.Hash
	}
	return hashes
}
