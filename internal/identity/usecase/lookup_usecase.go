package usecase

import (
	"context"
	"log/slog"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	cryptoService "github.com/allisson/identity/internal/crypto/service"
	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
)

// LookupUseCaseImpl resolves an email address to a subject through the blind
// index without ever querying on plaintext.
type LookupUseCaseImpl struct {
	txManager    database.TxManager
	identityRepo IdentityRepository
	blindIndexer cryptoService.BlindIndexer
	fieldCipher  cryptoService.FieldCipher
	logger       *slog.Logger
}

// NewLookupUseCase creates a new LookupUseCaseImpl
func NewLookupUseCase(
	txManager database.TxManager,
	identityRepo IdentityRepository,
	blindIndexer cryptoService.BlindIndexer,
	fieldCipher cryptoService.FieldCipher,
	logger *slog.Logger,
) *LookupUseCaseImpl {
	return &LookupUseCaseImpl{
		txManager:    txManager,
		identityRepo: identityRepo,
		blindIndexer: blindIndexer,
		fieldCipher:  fieldCipher,
		logger:       logger,
	}
}

// LookupBySecret finds the subject behind an email address. The address is
// hashed with every candidate index key so records written before a key
// rotation are still found; when a record is located under a retired key it
// is transparently re-indexed under the current one.
func (uc *LookupUseCaseImpl) LookupBySecret(ctx context.Context, email string) (*identityDomain.Subject, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	normalized := normalizeEmail(email)

	candidates, err := uc.blindIndexer.HashCandidates(cryptoDomain.PurposeEmailIndex, []byte(normalized))
	if err != nil {
		return nil, err
	}

	record, err := uc.identityRepo.FindByEmailHashes(ctx, hashValues(candidates))
	if err != nil {
		return nil, err
	}

	uc.reindexIfStale(ctx, record, normalized, candidates[0].KeyVersion)

	return &identityDomain.Subject{
		ID:   record.SubjectID,
		Kind: record.SubjectKind,
	}, nil
}

// reindexIfStale rewrites the record's hash and ciphertext under the current
// keys when it was found via a retired key version. Failure is logged and
// swallowed: the lookup already succeeded and the next one can retry.
func (uc *LookupUseCaseImpl) reindexIfStale(
	ctx context.Context,
	record *identityDomain.IdentityRecord,
	normalized string,
	currentVersion string,
) {
	if record.EmailHash.KeyVersion == currentVersion {
		return
	}

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		hash, err := uc.blindIndexer.HashForWrite(cryptoDomain.PurposeEmailIndex, []byte(normalized))
		if err != nil {
			return err
		}
		sealed, err := uc.fieldCipher.Encrypt(cryptoDomain.PurposeEmailSeal, []byte(normalized))
		if err != nil {
			return err
		}

		record.EmailHash = hash
		record.EmailSealed = sealed
		return uc.identityRepo.Update(ctx, record)
	})
	if err != nil {
		uc.logger.WarnContext(ctx, "failed to re-index identity record",
			"subject_id", record.SubjectID,
			"error", apperrors.Wrap(err, "re-index"),
		)
	}
}
