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

// PostgreSQLUserRepository implements user persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// NewPostgreSQLUserRepository creates a new PostgreSQL user repository.
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{db: db}
}

// Create inserts a new user.
func (p *PostgreSQLUserRepository) Create(ctx context.Context, user *identityDomain.User) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO users (id, password_hash, is_active, activated_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, NOW(), NOW())`

	_, err := querier.ExecContext(
		ctx,
		query,
		user.ID,
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
func (p *PostgreSQLUserRepository) Get(ctx context.Context, userID uuid.UUID) (*identityDomain.User, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, password_hash, is_active, activated_at, created_at, updated_at
			  FROM users WHERE id = $1`

	var user identityDomain.User

	err := querier.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
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

	return &user, nil
}

// Update modifies an existing user.
func (p *PostgreSQLUserRepository) Update(ctx context.Context, user *identityDomain.User) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE users
			  SET password_hash = $1,
			      is_active = $2,
			      activated_at = $3,
			      updated_at = NOW()
			  WHERE id = $4`

	_, err := querier.ExecContext(
		ctx,
		query,
		user.PasswordHash,
		user.IsActive,
		user.ActivatedAt,
		user.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update user")
	}

	return nil
}
