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

// PostgreSQLTokenRepository implements verification token persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLTokenRepository struct {
	db *sql.DB
}

// NewPostgreSQLTokenRepository creates a new PostgreSQL verification token repository.
func NewPostgreSQLTokenRepository(db *sql.DB) *PostgreSQLTokenRepository {
	return &PostgreSQLTokenRepository{db: db}
}

// Create inserts a new verification token.
func (p *PostgreSQLTokenRepository) Create(ctx context.Context, token *identityDomain.VerificationToken) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO verification_tokens (selector, validator_hash, key_version, subject_id, purpose,
			  expires_at, used_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`

	_, err := querier.ExecContext(
		ctx,
		query,
		token.Selector,
		token.ValidatorHash,
		token.KeyVersion,
		token.SubjectID,
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
func (p *PostgreSQLTokenRepository) GetBySelectorForUpdate(
	ctx context.Context,
	selector string,
) (*identityDomain.VerificationToken, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT selector, validator_hash, key_version, subject_id, purpose, expires_at, used_at, created_at
			  FROM verification_tokens WHERE selector = $1
			  FOR UPDATE`

	var token identityDomain.VerificationToken
	var keyVersion sql.NullString

	err := querier.QueryRowContext(ctx, query, selector).Scan(
		&token.Selector,
		&token.ValidatorHash,
		&keyVersion,
		&token.SubjectID,
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

	token.KeyVersion = keyVersion.String

	return &token, nil
}

// MarkUsed consumes a token: sets used_at and nulls the validator hash and its
// key version so the row can never satisfy another comparison.
func (p *PostgreSQLTokenRepository) MarkUsed(ctx context.Context, selector string, usedAt time.Time) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE verification_tokens
			  SET validator_hash = NULL, key_version = NULL, used_at = $1
			  WHERE selector = $2`

	_, err := querier.ExecContext(ctx, query, usedAt, selector)
	if err != nil {
		return apperrors.Wrap(err, "failed to mark verification token used")
	}

	return nil
}

// DeleteBySubjectAndPurpose removes any outstanding token for the subject and
// purpose, enforcing the one-outstanding-token-per-purpose rule at issue time.
func (p *PostgreSQLTokenRepository) DeleteBySubjectAndPurpose(
	ctx context.Context,
	subjectID uuid.UUID,
	purpose cryptoDomain.Purpose,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM verification_tokens WHERE subject_id = $1 AND purpose = $2 AND used_at IS NULL`

	_, err := querier.ExecContext(ctx, query, subjectID, purpose)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete verification tokens")
	}

	return nil
}

// DeleteExpired removes tokens that expired before the given instant and
// returns the number of rows deleted.
func (p *PostgreSQLTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM verification_tokens WHERE expires_at < $1`

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
