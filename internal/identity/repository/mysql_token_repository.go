package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
)

// MySQLTokenRepository implements verification token persistence for MySQL.
// Uses BINARY(16) UUID encoding with transaction support via database.GetTx().
type MySQLTokenRepository struct {
	db *sql.DB
}

// NewMySQLTokenRepository creates a new MySQL verification token repository.
func NewMySQLTokenRepository(db *sql.DB) *MySQLTokenRepository {
	return &MySQLTokenRepository{db: db}
}

// Create inserts a new verification token.
func (m *MySQLTokenRepository) Create(ctx context.Context, token *identityDomain.VerificationToken) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO verification_tokens (selector, validator_hash, key_version, subject_id, purpose,
			  expires_at, used_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, NOW())`

	idBytes, err := token.SubjectID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode subject id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		token.Selector,
		token.ValidatorHash,
		token.KeyVersion,
		idBytes,
		token.Purpose,
		token.ExpiresAt,
		token.UsedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create verification token")
	}
	return nil
}

// GetBySelectorForUpdate retrieves a verification token by selector with a row
// lock, so concurrent confirmation attempts on the same token serialize and at
// most one observes the unused state. Must run inside a transaction.
// Returns ErrTokenNotFound if no row exists for the selector.
func (m *MySQLTokenRepository) GetBySelectorForUpdate(
	ctx context.Context,
	selector string,
) (*identityDomain.VerificationToken, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT selector, validator_hash, key_version, subject_id, purpose, expires_at, used_at, created_at
			  FROM verification_tokens WHERE selector = ?
			  FOR UPDATE`

	var token identityDomain.VerificationToken
	var keyVersion sql.NullString
	var idBytes []byte

	err := querier.QueryRowContext(ctx, query, selector).Scan(
		&token.Selector,
		&token.ValidatorHash,
		&keyVersion,
		&idBytes,
		&token.Purpose,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identityDomain.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get verification token")
	}

	if err := token.SubjectID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode subject id")
	}

	token.KeyVersion = keyVersion.String

	return &token, nil
}

// MarkUsed consumes a token: sets used_at and nulls the validator hash and its
// key version so the row can never satisfy another comparison.
func (m *MySQLTokenRepository) MarkUsed(ctx context.Context, selector string, usedAt time.Time) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE verification_tokens
			  SET validator_hash = NULL, key_version = NULL, used_at = ?
			  WHERE selector = ?`

	_, err := querier.ExecContext(ctx, query, usedAt, selector)
	if err != nil {
		return apperrors.Wrap(err, "failed to mark verification token used")
	}

	return nil
}

// DeleteBySubjectAndPurpose removes any outstanding token for the subject and
// purpose, enforcing the one-outstanding-token-per-purpose rule at issue time.
func (m *MySQLTokenRepository) DeleteBySubjectAndPurpose(
	ctx context.Context,
	subjectID uuid.UUID,
	purpose cryptoDomain.Purpose,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM verification_tokens WHERE subject_id = ? AND purpose = ? AND used_at IS NULL`

	idBytes, err := subjectID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode subject id")
	}

	_, err = querier.ExecContext(ctx, query, idBytes, purpose)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete verification tokens")
	}

	return nil
}

// DeleteExpired removes tokens that expired before the given instant and
// returns the number of rows deleted.
func (m *MySQLTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM verification_tokens WHERE expires_at < ?`

	result, err := querier.ExecContext(ctx, query, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired verification tokens")
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count deleted verification tokens")
	}

	return deleted, nil
}
