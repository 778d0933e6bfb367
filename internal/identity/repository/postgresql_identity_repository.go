// Package repository provides data persistence implementations for identity entities.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
)

// PostgreSQLIdentityRepository implements identity lookup persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLIdentityRepository struct {
	db *sql.DB
}

// NewPostgreSQLIdentityRepository creates a new PostgreSQL identity repository.
func NewPostgreSQLIdentityRepository(db *sql.DB) *PostgreSQLIdentityRepository {
	return &PostgreSQLIdentityRepository{db: db}
}

// Create inserts a new identity lookup record.
func (p *PostgreSQLIdentityRepository) Create(ctx context.Context, record *identityDomain.IdentityRecord) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO identity_lookup (subject_id, subject_kind, email_hash, email_hash_key_version,
			  email_enc, email_key_version, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW())`

	_, err := querier.ExecContext(
		ctx,
		query,
		record.SubjectID,
		record.SubjectKind,
		record.EmailHash.Hash,
		record.EmailHash.KeyVersion,
		record.EmailSealed.Ciphertext,
		record.EmailSealed.KeyVersion,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create identity record")
	}
	return nil
}

// FindByEmailHashes retrieves the identity record whose stored blind index
// matches any of the candidate hashes. Callers pass one candidate per
// still-valid key version so records written before a rotation stay findable.
// Returns ErrIdentityNotFound when no candidate matches.
func (p *PostgreSQLIdentityRepository) FindByEmailHashes(
	ctx context.Context,
	hashes [][]byte,
) (*identityDomain.IdentityRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT subject_id, subject_kind, email_hash, email_hash_key_version,
			  email_enc, email_key_version, created_at
			  FROM identity_lookup WHERE email_hash = ANY($1)`

	var record identityDomain.IdentityRecord

	err := querier.QueryRowContext(ctx, query, pq.Array(hashes)).Scan(
		&record.SubjectID,
		&record.SubjectKind,
		&record.EmailHash.Hash,
		&record.EmailHash.KeyVersion,
		&record.EmailSealed.Ciphertext,
		&record.EmailSealed.KeyVersion,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identityDomain.ErrIdentityNotFound
		}
		return nil, apperrors.Wrap(err, "failed to find identity record")
	}

	return &record, nil
}

// GetBySubject retrieves the identity record for a subject.
// Returns ErrIdentityNotFound if the subject has no record.
func (p *PostgreSQLIdentityRepository) GetBySubject(
	ctx context.Context,
	subject identityDomain.Subject,
) (*identityDomain.IdentityRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT subject_id, subject_kind, email_hash, email_hash_key_version,
			  email_enc, email_key_version, created_at
			  FROM identity_lookup WHERE subject_id = $1 AND subject_kind = $2`

	var record identityDomain.IdentityRecord

	err := querier.QueryRowContext(ctx, query, subject.ID, subject.Kind).Scan(
		&record.SubjectID,
		&record.SubjectKind,
		&record.EmailHash.Hash,
		&record.EmailHash.KeyVersion,
		&record.EmailSealed.Ciphertext,
		&record.EmailSealed.KeyVersion,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identityDomain.ErrIdentityNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get identity record")
	}

	return &record, nil
}

// Update replaces the stored hash and ciphertext of an identity record,
// used to refresh rows found under a retired key version.
func (p *PostgreSQLIdentityRepository) Update(ctx context.Context, record *identityDomain.IdentityRecord) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE identity_lookup
			  SET email_hash = $1,
			      email_hash_key_version = $2,
			      email_enc = $3,
			      email_key_version = $4
			  WHERE subject_id = $5`

	_, err := querier.ExecContext(
		ctx,
		query,
		record.EmailHash.Hash,
		record.EmailHash.KeyVersion,
		record.EmailSealed.Ciphertext,
		record.EmailSealed.KeyVersion,
		record.SubjectID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update identity record")
	}

	return nil
}
