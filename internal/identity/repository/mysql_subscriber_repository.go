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

// MySQLSubscriberRepository implements newsletter subscriber persistence for
// MySQL. Uses BINARY(16) UUID encoding with transaction support via database.GetTx().
type MySQLSubscriberRepository struct {
	db *sql.DB
}

// NewMySQLSubscriberRepository creates a new MySQL subscriber repository.
func NewMySQLSubscriberRepository(db *sql.DB) *MySQLSubscriberRepository {
	return &MySQLSubscriberRepository{db: db}
}

// Create inserts a new newsletter subscriber.
func (m *MySQLSubscriberRepository) Create(ctx context.Context, subscriber *identityDomain.Subscriber) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO newsletter_subscribers (id, status, confirmed_at, unsubscribed_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, NOW(), NOW())`

	idBytes, err := subscriber.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode subscriber id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
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
func (m *MySQLSubscriberRepository) Get(
	ctx context.Context,
	subscriberID uuid.UUID,
) (*identityDomain.Subscriber, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, status, confirmed_at, unsubscribed_at, created_at, updated_at
			  FROM newsletter_subscribers WHERE id = ?`

	queryID, err := subscriberID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode subscriber id")
	}

	var subscriber identityDomain.Subscriber
	var idBytes []byte

	err = querier.QueryRowContext(ctx, query, queryID).Scan(
		&idBytes,
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

	if err := subscriber.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode subscriber id")
	}

	return &subscriber, nil
}

// Update modifies an existing subscriber.
func (m *MySQLSubscriberRepository) Update(ctx context.Context, subscriber *identityDomain.Subscriber) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE newsletter_subscribers
			  SET status = ?,
			      confirmed_at = ?,
			      unsubscribed_at = ?,
			      updated_at = NOW()
			  WHERE id = ?`

	idBytes, err := subscriber.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode subscriber id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		subscriber.Status,
		subscriber.ConfirmedAt,
		subscriber.UnsubscribedAt,
		idBytes,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update subscriber")
	}

	return nil
}
