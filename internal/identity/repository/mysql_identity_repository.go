package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
)

// MySQLIdentityRepository implements identity lookup persistence for MySQL.
// Uses BINARY(16) UUID encoding with transaction support via database.GetTx().
type MySQLIdentityRepository struct {
	db *sql.DB
}

// NewMySQLIdentityRepository creates a new MySQL identity repository.
func NewMySQLIdentityRepository(db *sql.DB) *MySQLIdentityRepository {
	return &MySQLIdentityRepository{db: db}
}

// Create inserts a new identity lookup record.
func (m *MySQLIdentityRepository) Create(ctx context.Context, record *identityDomain.IdentityRecord) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO identity_lookup (subject_id, subject_kind, email_hash, email_hash_key_version,
			  email_enc, email_key_version, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, NOW())`

	idBytes, err := record.SubjectID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode subject id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
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
// matches any of the candidate hashes. Returns ErrIdentityNotFound when no
// candidate matches.
func (m *MySQLIdentityRepository) FindByEmailHashes(
	ctx context.Context,
	hashes [][]byte,
) (*identityDomain.IdentityRecord, error) {
	if len(hashes) == 0 {
		return nil, identityDomain.ErrIdentityNotFound
	}

	querier := database.GetTx(ctx, m.db)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(hashes)), ", ")
	query := `SELECT subject_id, subject_kind, email_hash, email_hash_key_version,
			  email_enc, email_key_version, created_at
			  FROM identity_lookup WHERE email_hash IN (` + placeholders + `)`

	args := make([]interface{}, len(hashes))
	for i, h := range hashes {
		args[i] = h
	}

	var record identityDomain.IdentityRecord
	var idBytes []byte

	err := querier.QueryRowContext(ctx, query, args...).Scan(
		&idBytes,
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

	if err := record.SubjectID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode subject id")
	}

	return &record, nil
}

// GetBySubject retrieves the identity record for a subject.
// Returns ErrIdentityNotFound if the subject has no record.
func (m *MySQLIdentityRepository) GetBySubject(
	ctx context.Context,
	subject identityDomain.Subject,
) (*identityDomain.IdentityRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT subject_id, subject_kind, email_hash, email_hash_key_version,
			  email_enc, email_key_version, created_at
			  FROM identity_lookup WHERE subject_id = ? AND subject_kind = ?`

	subjectIDBytes, err := subject.ID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode subject id")
	}

	var record identityDomain.IdentityRecord
	var idBytes []byte

	err = querier.QueryRowContext(ctx, query, subjectIDBytes, subject.Kind).Scan(
		&idBytes,
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

	if err := record.SubjectID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode subject id")
	}

	return &record, nil
}

// Update replaces the stored hash and ciphertext of an identity record,
// used to refresh rows found under a retired key version.
func (m *MySQLIdentityRepository) Update(ctx context.Context, record *identityDomain.IdentityRecord) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE identity_lookup
			  SET email_hash = ?,
			      email_hash_key_version = ?,
			      email_enc = ?,
			      email_key_version = ?
			  WHERE subject_id = ?`

	idBytes, err := record.SubjectID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode subject id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		record.EmailHash.Hash,
		record.EmailHash.KeyVersion,
		record.EmailSealed.Ciphertext,
		record.EmailSealed.KeyVersion,
		idBytes,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update identity record")
	}

	return nil
}
