package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/identity/internal/database"
	apperrors "github.com/allisson/identity/internal/errors"
	identityDomain "github.com/allisson/identity/internal/identity/domain"
)

// MySQLUserRepository implements user persistence for MySQL.
// Uses BINARY(16) UUID encoding with transaction support via database.GetTx().
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQL user repository.
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

// Create inserts a new user.
func (m *MySQLUserRepository) Create(ctx context.Context, user *identityDomain.User) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO users (id, password_hash, is_active, activated_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, NOW(), NOW())`

	idBytes, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode user id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
		user.PasswordHash,
		user.IsActive,
		user.ActivatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

// Get retrieves a user by ID. Returns ErrUserNotFound if the user doesn't exist.
func (m *MySQLUserRepository) Get(ctx context.Context, userID uuid.UUID) (*identityDomain.User, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, password_hash, is_active, activated_at, created_at, updated_at
			  FROM users WHERE id = ?`

	queryID, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode user id")
	}

	var user identityDomain.User
	var idBytes []byte

	err = querier.QueryRowContext(ctx, query, queryID).Scan(
		&idBytes,
		&user.PasswordHash,
		&user.IsActive,
		&user.ActivatedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identityDomain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user")
	}

	if err := user.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode user id")
	}

	return &user, nil
}

// Update modifies an existing user.
func (m *MySQLUserRepository) Update(ctx context.Context, user *identityDomain.User) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE users
			  SET password_hash = ?,
			      is_active = ?,
			      activated_at = ?,
			      updated_at = NOW()
			  WHERE id = ?`

	idBytes, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode user id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		user.PasswordHash,
		user.IsActive,
		user.ActivatedAt,
		idBytes,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update user")
	}

	return nil
}
