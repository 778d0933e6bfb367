// Package repository provides data persistence implementations for mail queue entities.
package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/identity/internal/database"
	"github.com/allisson/identity/internal/mailer/domain"
)

// MySQLMailMessageRepository handles mail message persistence for MySQL
type MySQLMailMessageRepository struct {
	db *sql.DB
}

// NewMySQLMailMessageRepository creates a new MySQLMailMessageRepository
func NewMySQLMailMessageRepository(db *sql.DB) *MySQLMailMessageRepository {
	return &MySQLMailMessageRepository{
		db: db,
	}
}

// Create inserts a new mail message
func (r *MySQLMailMessageRepository) Create(ctx context.Context, message *domain.MailMessage) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO mail_queue (id, template, body, body_key_version, status, retries, last_error, sent_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	// Convert UUID to bytes for MySQL BINARY(16)
	idBytes, err := message.ID.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = querier.ExecContext(ctx, query, idBytes, message.Template, message.Body.Ciphertext,
		message.Body.KeyVersion, message.Status, message.Retries, message.LastError, message.SentAt)

	return err
}

// GetPendingMessages retrieves pending messages with limit
func (r *MySQLMailMessageRepository) GetPendingMessages(
	ctx context.Context,
	limit int,
) ([]*domain.MailMessage, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, template, body, body_key_version, status, retries, last_error, sent_at, created_at, updated_at
			  FROM mail_queue
			  WHERE status = ?
			  ORDER BY created_at ASC
			  LIMIT ?
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, domain.MailStatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var messages []*domain.MailMessage
	for rows.Next() {
		var message domain.MailMessage
		var idBytes []byte

		err := rows.Scan(&idBytes, &message.Template, &message.Body.Ciphertext, &message.Body.KeyVersion,
			&message.Status, &message.Retries, &message.LastError, &message.SentAt,
			&message.CreatedAt, &message.UpdatedAt)
		if err != nil {
			return nil, err
		}

		// Convert bytes back to UUID
		if err := message.ID.UnmarshalBinary(idBytes); err != nil {
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
func (r *MySQLMailMessageRepository) Update(ctx context.Context, message *domain.MailMessage) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE mail_queue
			  SET template = ?, body = ?, body_key_version = ?, status = ?, retries = ?, last_error = ?,
			      sent_at = ?, updated_at = NOW()
			  WHERE id = ?`

	// Convert UUID to bytes for MySQL BINARY(16)
	idBytes, err := message.ID.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = querier.ExecContext(ctx, query, message.Template, message.Body.Ciphertext, message.Body.KeyVersion,
		message.Status, message.Retries, message.LastError, message.SentAt, idBytes)

	return err
}
