package usecase

import (
	"context"
	"crypto/hmac"
	"encoding/hex"
	"time"

	"github.com/allisson/go-pwdhash"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	cryptoService "github.com/allisson/identity/internal/crypto/service"
	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
)

// ConfirmUseCaseImpl verifies and consumes one-time tokens.
//
// The whole confirmation — row lock, validator comparison, purpose effect,
// consumption — runs in a single transaction, so two concurrent attempts on
// the same token serialize on the row lock and exactly one wins.
type ConfirmUseCaseImpl struct {
	txManager      database.TxManager
	tokenRepo      TokenRepository
	userRepo       UserRepository
	subRepo        SubscriberRepository
	blindIndexer   cryptoService.BlindIndexer
	passwordHasher *pwdhash.PasswordHasher
}

// NewConfirmUseCase creates a new ConfirmUseCaseImpl
func NewConfirmUseCase(
	txManager database.TxManager,
	tokenRepo TokenRepository,
	userRepo UserRepository,
	subRepo SubscriberRepository,
	blindIndexer cryptoService.BlindIndexer,
) (*ConfirmUseCaseImpl, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}

	return &ConfirmUseCaseImpl{
		txManager:      txManager,
		tokenRepo:      tokenRepo,
		userRepo:       userRepo,
		subRepo:        subRepo,
		blindIndexer:   blindIndexer,
		passwordHasher: hasher,
	}, nil
}

// Confirm runs the token state machine: not_found, already_used, expired,
// invalid, or valid with the purpose effect applied and the token consumed.
//
// Rejected tokens are never consumed: an attacker guessing validators cannot
// burn a legitimate user's token, and the real link keeps working until its
// TTL runs out or it is used.
func (uc *ConfirmUseCaseImpl) Confirm(
	ctx context.Context,
	input identityDomain.ConfirmTokenInput,
) (*identityDomain.ConfirmTokenOutput, error) {
	if !identityDomain.IsTokenPurpose(input.Purpose) {
		return nil, identityDomain.ErrNotTokenPurpose
	}

	if input.Purpose == cryptoDomain.PurposePasswordReset {
		if input.NewPassword == "" {
			return nil, identityDomain.ErrPasswordRequired
		}
		if err := validatePassword(input.NewPassword); err != nil {
			return nil, err
		}
	}

	validator, err := hex.DecodeString(input.Validator)
	if err != nil || len(validator) != identityDomain.ValidatorSize {
		return &identityDomain.ConfirmTokenOutput{Status: identityDomain.ConfirmationInvalid}, nil
	}
	validatorSecret := cryptoDomain.NewSecret(validator)
	defer validatorSecret.Close()

	output := &identityDomain.ConfirmTokenOutput{}

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		token, err := uc.tokenRepo.GetBySelectorForUpdate(ctx, input.Selector)
		if err != nil {
			if apperrors.Is(err, identityDomain.ErrTokenNotFound) {
				output.Status = identityDomain.ConfirmationNotFound
				return nil
			}
			return err
		}

		// A selector found under a different purpose is treated as an
		// unknown token, not as a hint that the selector exists elsewhere
		if token.Purpose != input.Purpose {
			output.Status = identityDomain.ConfirmationNotFound
			return nil
		}

		if token.IsUsed() {
			output.Status = identityDomain.ConfirmationAlreadyUsed
			return nil
		}

		now := time.Now().UTC()
		if token.IsExpired(now) {
			output.Status = identityDomain.ConfirmationExpired
			return nil
		}

		if !uc.validatorMatches(token, validatorSecret.Bytes()) {
			output.Status = identityDomain.ConfirmationInvalid
			return nil
		}

		if err := uc.applyEffect(ctx, token, input.NewPassword, now); err != nil {
			return err
		}

		if err := uc.tokenRepo.MarkUsed(ctx, token.Selector, now); err != nil {
			return err
		}

		output.Status = identityDomain.ConfirmationValid
		output.SubjectID = token.SubjectID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return output, nil
}

// validatorMatches compares the presented validator against the stored hash
// in constant time, trying every candidate key version so tokens issued
// before a rotation keep verifying.
func (uc *ConfirmUseCaseImpl) validatorMatches(token *identityDomain.VerificationToken, validator []byte) bool {
	candidates, err := uc.blindIndexer.HashCandidates(token.Purpose, validator)
	if err != nil {
		return false
	}

	matched := false
	for _, candidate := range candidates {
		if hmac.Equal(candidate.Hash, token.ValidatorHash) {
			matched = true
		}
	}
	return matched
}

// applyEffect performs the purpose-specific state change inside the
// confirmation transaction.
func (uc *ConfirmUseCaseImpl) applyEffect(
	ctx context.Context,
	token *identityDomain.VerificationToken,
	newPassword string,
	now time.Time,
) error {
	switch token.Purpose {
	case cryptoDomain.PurposeEmailVerify:
		user, err := uc.userRepo.Get(ctx, token.SubjectID)
		if err != nil {
			return err
		}
		user.IsActive = true
		user.ActivatedAt = &now
		return uc.userRepo.Update(ctx, user)

	case cryptoDomain.PurposePasswordReset:
		user, err := uc.userRepo.Get(ctx, token.SubjectID)
		if err != nil {
			return err
		}
		passwordHash, err := uc.passwordHasher.Hash([]byte(newPassword))
		if err != nil {
			return apperrors.Wrap(err, "failed to hash password")
		}
		user.PasswordHash = passwordHash
		return uc.userRepo.Update(ctx, user)

	case cryptoDomain.PurposeNewsletterConfirm:
		subscriber, err := uc.subRepo.Get(ctx, token.SubjectID)
		if err != nil {
			return err
		}
		subscriber.Status = identityDomain.SubscriberStatusConfirmed
		subscriber.ConfirmedAt = &now
		subscriber.UnsubscribedAt = nil
		return uc.subRepo.Update(ctx, subscriber)

	case cryptoDomain.PurposeNewsletterUnsubscribe:
		subscriber, err := uc.subRepo.Get(ctx, token.SubjectID)
		if err != nil {
			return err
		}
		subscriber.Status = identityDomain.SubscriberStatusUnsubscribed
		subscriber.UnsubscribedAt = &now
		return uc.subRepo.Update(ctx, subscriber)
	}

	return identityDomain.ErrNotTokenPurpose
}
