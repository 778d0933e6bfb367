// Package repository provides data persistence implementations for mail queue entities.
package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/identity/internal/database"
	"github.com/allisson/identity/internal/mailer/domain"
)

// PostgreSQLMailMessageRepository handles mail message persistence for PostgreSQL
type PostgreSQLMailMessageRepository struct {
	db *sql.DB
}

// NewPostgreSQLMailMessageRepository creates a new PostgreSQLMailMessageRepository
func NewPostgreSQLMailMessageRepository(db *sql.DB) *PostgreSQLMailMessageRepository {
	return &PostgreSQLMailMessageRepository{
		db: db,
	}
}

// Create inserts a new mail message
func (r *PostgreSQLMailMessageRepository) Create(ctx context.Context, message *domain.MailMessage) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO mail_queue (id, template, body, body_key_version, status, retries, last_error, sent_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, message.ID, message.Template, message.Body.Ciphertext,
		message.Body.KeyVersion, message.Status, message.Retries, message.LastError, message.SentAt)

	return err
}

// GetPendingMessages retrieves pending messages with limit
func (r *PostgreSQLMailMessageRepository) GetPendingMessages(
	ctx context.Context,
	limit int,
) ([]*domain.MailMessage, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, template, body, body_key_version, status, retries, last_error, sent_at, created_at, updated_at
			  FROM mail_queue
			  WHERE status = $1
			  ORDER BY created_at ASC
			  LIMIT $2
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, domain.MailStatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var messages []*domain.MailMessage
	for rows.Next() {
		var message domain.MailMessage

		err := rows.Scan(&message.ID, &message.Template, &message.Body.Ciphertext, &message.Body.KeyVersion,
			&message.Status, &message.Retries, &message.LastError, &message.SentAt,
			&message.CreatedAt, &message.UpdatedAt)
		if err != nil {
			return nil, err
		}

		messages = append(messages, &message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

// Update updates a mail message
func (r *PostgreSQLMailMessageRepository) Update(ctx context.Context, message *domain.MailMessage) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE mail_queue
			  SET template = $1, body = $2, body_key_version = $3, status = $4, retries = $5, last_error = $6,
			      sent_at = $7, updated_at = NOW()
			  WHERE id = $8`

	_, err := querier.ExecContext(ctx, query, message.Template, message.Body.Ciphertext, message.Body.KeyVersion,
		message.Status, message.Retries, message.LastError, message.SentAt, message.ID)

	return err
}
