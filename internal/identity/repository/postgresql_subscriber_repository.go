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

// PostgreSQLSubscriberRepository implements newsletter subscriber persistence
// for PostgreSQL. Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLSubscriberRepository struct {
	db *sql.DB
}

// NewPostgreSQLSubscriberRepository creates a new PostgreSQL subscriber repository.
func NewPostgreSQLSubscriberRepository(db *sql.DB) *PostgreSQLSubscriberRepository {
	return &PostgreSQLSubscriberRepository{db: db}
}

// Create inserts a new newsletter subscriber.
func (p *PostgreSQLSubscriberRepository) Create(ctx context.Context, subscriber *identityDomain.Subscriber) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO newsletter_subscribers (id, status, confirmed_at, unsubscribed_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, NOW(), NOW())`

	_, err := querier.ExecContext(
		ctx,
		query,
		subscriber.ID,
		subscriber.Status,
		subscriber.ConfirmedAt,
		subscriber.UnsubscribedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create subscriber")
	}
	return nil
}

// Get retrieves a subscriber by ID. Returns ErrSubscriberNotFound if the
// subscriber doesn't exist.
func (p *PostgreSQLSubscriberRepository) Get(
	ctx context.Context,
	subscriberID uuid.UUID,
) (*identityDomain.Subscriber, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, status, confirmed_at, unsubscribed_at, created_at, updated_at
			  FROM newsletter_subscribers WHERE id = $1`

	var subscriber identityDomain.Subscriber

	err := querier.QueryRowContext(ctx, query, subscriberID).Scan(
		&subscriber.ID,
		&subscriber.Status,
		&subscriber.ConfirmedAt,
		&subscriber.UnsubscribedAt,
		&subscriber.CreatedAt,
		&subscriber.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identityDomain.ErrSubscriberNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get subscriber")
	}

	return &subscriber, nil
}

// Update modifies an existing subscriber.
func (p *PostgreSQLSubscriberRepository) Update(ctx context.Context, subscriber *identityDomain.Subscriber) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE newsletter_subscribers
			  SET status = $1,
			      confirmed_at = $2,
			      unsubscribed_at = $3,
			      updated_at = NOW()
			  WHERE id = $4`

	_, err := querier.ExecContext(
		ctx,
		query,
		subscriber.Status,
		subscriber.ConfirmedAt,
		subscriber.UnsubscribedAt,
		subscriber.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update subscriber")
	}

	return nil
}
