// Package domain defines the core mail queue domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
)

// MailStatus represents the delivery status of a queued mail message
type MailStatus string

const (
	MailStatusPending MailStatus = "pending"
	MailStatusSent    MailStatus = "sent"
	MailStatusFailed  MailStatus = "failed"
)

// Mail templates rendered by the transport
const (
	TemplateEmailVerify           = "email_verify"
	TemplatePasswordReset         = "password_reset"
	TemplateNewsletterConfirm     = "newsletter_confirm"
	TemplateNewsletterUnsubscribe = "newsletter_unsubscribe"
)

// MailMessage represents a queued outbound email. The body holds the sealed
// JSON payload so recipient addresses and one-time links never sit in
// plaintext at rest. The sealing key version travels on the envelope
// (Body.KeyVersion, persisted as mail_queue.body_key_version): it is
// assigned at seal time, so it cannot live inside the sealed payload.
type MailMessage struct {
	ID        uuid.UUID
	Template  string
	Body      cryptoDomain.EncryptedField
	Status    MailStatus
	Retries   int
	LastError *string
	SentAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MailPayload is the plaintext form of a message body. It exists only in
// memory: sealed before enqueue, opened again just before sending.
type MailPayload struct {
	Recipient string            `json:"recipient"`
	Link      string            `json:"link,omitempty"`
	Vars      map[string]string `json:"vars,omitempty"`
}
