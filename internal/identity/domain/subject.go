package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubjectKind distinguishes the two entities a token can act on.
type SubjectKind string

const (
	// SubjectKindUser is a store account.
	SubjectKindUser SubjectKind = "user"

	// SubjectKindSubscriber is a newsletter subscriber without an account.
	SubjectKindSubscriber SubjectKind = "subscriber"
)

// IsValid reports whether k is a known subject kind.
func (k SubjectKind) IsValid() bool {
	return k == SubjectKindUser || k == SubjectKindSubscriber
}

// Subject is the resolved owner of an identity record.
type Subject struct {
	ID   uuid.UUID
	Kind SubjectKind
}

// User represents a store account. The email address itself never appears
// here: it lives encrypted in the identity_lookup row for the subject.
type User struct {
	ID           uuid.UUID
	PasswordHash string
	IsActive     bool
	ActivatedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SubscriberStatus tracks the newsletter double-opt-in lifecycle.
type SubscriberStatus string

const (
	SubscriberStatusPending      SubscriberStatus = "pending"
	SubscriberStatusConfirmed    SubscriberStatus = "confirmed"
	SubscriberStatusUnsubscribed SubscriberStatus = "unsubscribed"
)

// Subscriber represents a newsletter subscriber.
type Subscriber struct {
	ID             uuid.UUID
	Status         SubscriberStatus
	ConfirmedAt    *time.Time
	UnsubscribedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
