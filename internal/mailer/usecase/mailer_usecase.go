// Package usecase implements the mail queue business logic: sealed enqueue of
// outbound messages and the paced dispatch loop that drains them.
package usecase

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	cryptoService "github.com/allisson/identity/internal/crypto/service"
	"github.com/allisson/identity/internal/mailer/domain"
)

// MailMessageRepository defines mail message repository operations
type MailMessageRepository interface {
	Create(ctx context.Context, message *domain.MailMessage) error
	GetPendingMessages(ctx context.Context, limit int) ([]*domain.MailMessage, error)
	Update(ctx context.Context, message *domain.MailMessage) error
}

// Mailer enqueues outbound email for asynchronous delivery. Enqueue joins the
// caller's transaction, so a message is only queued if the surrounding state
// change commits.
type Mailer interface {
	Enqueue(ctx context.Context, template string, payload *domain.MailPayload) (uuid.UUID, error)
}

// MailerUseCase implements Mailer backed by the mail_queue table. Payloads are
// sealed before they reach the database, so recipient addresses and one-time
// links never sit in plaintext at rest.
type MailerUseCase struct {
	mailRepo    MailMessageRepository
	fieldCipher cryptoService.FieldCipher
}

// NewMailerUseCase creates a new MailerUseCase
func NewMailerUseCase(mailRepo MailMessageRepository, fieldCipher cryptoService.FieldCipher) *MailerUseCase {
	return &MailerUseCase{
		mailRepo:    mailRepo,
		fieldCipher: fieldCipher,
	}
}

// Enqueue seals the payload and inserts a pending mail message
func (uc *MailerUseCase) Enqueue(
	ctx context.Context,
	template string,
	payload *domain.MailPayload,
) (uuid.UUID, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, err
	}
	defer cryptoDomain.Zero(plaintext)

	body, err := uc.fieldCipher.Encrypt(cryptoDomain.PurposeEmailSeal, plaintext)
	if err != nil {
		return uuid.Nil, err
	}

	message := &domain.MailMessage{
		ID:       uuid.Must(uuid.NewV7()),
		Template: template,
		Body:     body,
		Status:   domain.MailStatusPending,
	}

	if err := uc.mailRepo.Create(ctx, message); err != nil {
		return uuid.Nil, err
	}

	return message.ID, nil
}
