package usecase

import (
	"context"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	cryptoService "github.com/allisson/identity/internal/crypto/service"
	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
	identityService "github.com/allisson/identity/internal/identity/service"
	mailerDomain "github.com/allisson/identity/internal/mailer/domain"
	mailerUsecase "github.com/allisson/identity/internal/mailer/usecase"
)

// NewsletterUseCaseImpl handles newsletter double-opt-in flows.
type NewsletterUseCaseImpl struct {
	config       Config
	txManager    database.TxManager
	identityRepo IdentityRepository
	tokenRepo    TokenRepository
	subRepo      SubscriberRepository
	tokenIssuer  identityService.TokenIssuer
	blindIndexer cryptoService.BlindIndexer
	fieldCipher  cryptoService.FieldCipher
	mailer       mailerUsecase.Mailer
}

// NewNewsletterUseCase creates a new NewsletterUseCaseImpl
func NewNewsletterUseCase(
	config Config,
	txManager database.TxManager,
	identityRepo IdentityRepository,
	tokenRepo TokenRepository,
	subRepo SubscriberRepository,
	tokenIssuer identityService.TokenIssuer,
	blindIndexer cryptoService.BlindIndexer,
	fieldCipher cryptoService.FieldCipher,
	mailer mailerUsecase.Mailer,
) *NewsletterUseCaseImpl {
	return &NewsletterUseCaseImpl{
		config:       config,
		txManager:    txManager,
		identityRepo: identityRepo,
		tokenRepo:    tokenRepo,
		subRepo:      subRepo,
		tokenIssuer:  tokenIssuer,
		blindIndexer: blindIndexer,
		fieldCipher:  fieldCipher,
		mailer:       mailer,
	}
}

// issueToken supersedes, mints, persists, and enqueues in one step; must run
// inside a transaction.
func (uc *NewsletterUseCaseImpl) issueToken(
	ctx context.Context,
	purpose cryptoDomain.Purpose,
	subjectID uuid.UUID,
	recipient string,
	template string,
) error {
	if err := uc.tokenRepo.DeleteBySubjectAndPurpose(ctx, subjectID, purpose); err != nil {
		return err
	}

	token, issued, err := uc.tokenIssuer.Issue(purpose, subjectID, uc.config.NewsletterTokenTTL)
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

// Subscribe starts the double-opt-in flow: a pending subscriber with its
// identity record and a newsletter_confirm token. Re-subscribing a pending
// address re-issues the confirmation token; a confirmed address is a silent
// no-op. The response never reveals which branch was taken.
func (uc *NewsletterUseCaseImpl) Subscribe(ctx context.Context, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}

	normalized := normalizeEmail(email)

	candidates, err := uc.blindIndexer.HashCandidates(cryptoDomain.PurposeEmailIndex, []byte(normalized))
	if err != nil {
		return err
	}

	emailHash, err := uc.blindIndexer.HashForWrite(cryptoDomain.PurposeEmailIndex, []byte(normalized))
	if err != nil {
		return err
	}

	emailSealed, err := uc.fieldCipher.Encrypt(cryptoDomain.PurposeEmailSeal, []byte(normalized))
	if err != nil {
		return err
	}

	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		record, err := uc.identityRepo.FindByEmailHashes(ctx, hashValues(candidates))
		if err != nil && !apperrors.Is(err, identityDomain.ErrIdentityNotFound) {
			return err
		}

		if record != nil {
			if record.SubjectKind != identityDomain.SubjectKindSubscriber {
				// Address belongs to a store account: neutral no-op
				return nil
			}

			subscriber, err := uc.subRepo.Get(ctx, record.SubjectID)
			if err != nil {
				return err
			}

			switch subscriber.Status {
			case identityDomain.SubscriberStatusConfirmed:
				return nil
			case identityDomain.SubscriberStatusPending, identityDomain.SubscriberStatusUnsubscribed:
				return uc.issueToken(ctx, cryptoDomain.PurposeNewsletterConfirm,
					subscriber.ID, normalized, mailerDomain.TemplateNewsletterConfirm)
			}
			return nil
		}

		subscriber := &identityDomain.Subscriber{
			ID:     uuid.Must(uuid.NewV7()),
			Status: identityDomain.SubscriberStatusPending,
		}
		if err := uc.subRepo.Create(ctx, subscriber); err != nil {
			return err
		}

		newRecord := &identityDomain.IdentityRecord{
			SubjectID:   subscriber.ID,
			SubjectKind: identityDomain.SubjectKindSubscriber,
			EmailHash:   emailHash,
			EmailSealed: emailSealed,
		}
		if err := uc.identityRepo.Create(ctx, newRecord); err != nil {
			return err
		}

		return uc.issueToken(ctx, cryptoDomain.PurposeNewsletterConfirm,
			subscriber.ID, normalized, mailerDomain.TemplateNewsletterConfirm)
	})
}

// RequestUnsubscribe issues a newsletter_unsubscribe token for a confirmed
// subscriber. Unknown addresses and non-subscribers get the same neutral
// no-op response.
func (uc *NewsletterUseCaseImpl) RequestUnsubscribe(ctx context.Context, email string) error {
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
				return nil
			}
			return err
		}

		if record.SubjectKind != identityDomain.SubjectKindSubscriber {
			return nil
		}

		subscriber, err := uc.subRepo.Get(ctx, record.SubjectID)
		if err != nil {
			return err
		}

		if subscriber.Status != identityDomain.SubscriberStatusConfirmed {
			return nil
		}

		return uc.issueToken(ctx, cryptoDomain.PurposeNewsletterUnsubscribe,
			subscriber.ID, normalized, mailerDomain.TemplateNewsletterUnsubscribe)
	})
}
