package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	identityDomain "github.com/allisson/identity/internal/identity/domain"
	"github.com/allisson/identity/internal/metrics"
)

// accountUseCaseWithMetrics decorates AccountUseCase with metrics instrumentation.
type accountUseCaseWithMetrics struct {
	next    AccountUseCase
	metrics metrics.BusinessMetrics
}

// NewAccountUseCaseWithMetrics wraps an AccountUseCase with metrics recording.
func NewAccountUseCaseWithMetrics(useCase AccountUseCase, m metrics.BusinessMetrics) AccountUseCase {
	return &accountUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Register records metrics for account registration operations.
func (a *accountUseCaseWithMetrics) Register(ctx context.Context, input RegisterInput) error {
	start := time.Now()
	err := a.next.Register(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "identity", "register", status)
	a.metrics.RecordDuration(ctx, "identity", "register", time.Since(start), status)

	return err
}

// RequestVerification records metrics for verification re-send operations.
func (a *accountUseCaseWithMetrics) RequestVerification(ctx context.Context, subjectID uuid.UUID) error {
	start := time.Now()
	err := a.next.RequestVerification(ctx, subjectID)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "identity", "request_verification", status)
	a.metrics.RecordDuration(ctx, "identity", "request_verification", time.Since(start), status)

	return err
}

// RequestPasswordReset records metrics for password reset request operations.
func (a *accountUseCaseWithMetrics) RequestPasswordReset(ctx context.Context, email string) error {
	start := time.Now()
	err := a.next.RequestPasswordReset(ctx, email)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "identity", "request_password_reset", status)
	a.metrics.RecordDuration(ctx, "identity", "request_password_reset", time.Since(start), status)

	return err
}

// newsletterUseCaseWithMetrics decorates NewsletterUseCase with metrics instrumentation.
type newsletterUseCaseWithMetrics struct {
	next    NewsletterUseCase
	metrics metrics.BusinessMetrics
}

// NewNewsletterUseCaseWithMetrics wraps a NewsletterUseCase with metrics recording.
func NewNewsletterUseCaseWithMetrics(useCase NewsletterUseCase, m metrics.BusinessMetrics) NewsletterUseCase {
	return &newsletterUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Subscribe records metrics for newsletter subscription operations.
func (n *newsletterUseCaseWithMetrics) Subscribe(ctx context.Context, email string) error {
	start := time.Now()
	err := n.next.Subscribe(ctx, email)

	status := "success"
	if err != nil {
		status = "error"
	}

	n.metrics.RecordOperation(ctx, "identity", "newsletter_subscribe", status)
	n.metrics.RecordDuration(ctx, "identity", "newsletter_subscribe", time.Since(start), status)

	return err
}

// RequestUnsubscribe records metrics for unsubscribe request operations.
func (n *newsletterUseCaseWithMetrics) RequestUnsubscribe(ctx context.Context, email string) error {
	start := time.Now()
	err := n.next.RequestUnsubscribe(ctx, email)

	status := "success"
	if err != nil {
		status = "error"
	}

	n.metrics.RecordOperation(ctx, "identity", "newsletter_unsubscribe_request", status)
	n.metrics.RecordDuration(ctx, "identity", "newsletter_unsubscribe_request", time.Since(start), status)

	return err
}

// confirmUseCaseWithMetrics decorates ConfirmUseCase with metrics instrumentation.
type confirmUseCaseWithMetrics struct {
	next    ConfirmUseCase
	metrics metrics.BusinessMetrics
}

// NewConfirmUseCaseWithMetrics wraps a ConfirmUseCase with metrics recording.
func NewConfirmUseCaseWithMetrics(useCase ConfirmUseCase, m metrics.BusinessMetrics) ConfirmUseCase {
	return &confirmUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Confirm records metrics for token confirmation operations. The rejection
// statuses count as successful operations here; only transport and storage
// failures count as errors.
func (c *confirmUseCaseWithMetrics) Confirm(
	ctx context.Context,
	input identityDomain.ConfirmTokenInput,
) (*identityDomain.ConfirmTokenOutput, error) {
	start := time.Now()
	output, err := c.next.Confirm(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "identity", "confirm", status)
	c.metrics.RecordDuration(ctx, "identity", "confirm", time.Since(start), status)

	return output, err
}

// lookupUseCaseWithMetrics decorates LookupUseCase with metrics instrumentation.
type lookupUseCaseWithMetrics struct {
	next    LookupUseCase
	metrics metrics.BusinessMetrics
}

// NewLookupUseCaseWithMetrics wraps a LookupUseCase with metrics recording.
func NewLookupUseCaseWithMetrics(useCase LookupUseCase, m metrics.BusinessMetrics) LookupUseCase {
	return &lookupUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// LookupBySecret records metrics for blind index lookup operations.
func (l *lookupUseCaseWithMetrics) LookupBySecret(
	ctx context.Context,
	email string,
) (*identityDomain.Subject, error) {
	start := time.Now()
	subject, err := l.next.LookupBySecret(ctx, email)

	status := "success"
	if err != nil {
		status = "error"
	}

	l.metrics.RecordOperation(ctx, "identity", "lookup", status)
	l.metrics.RecordDuration(ctx, "identity", "lookup", time.Since(start), status)

	return subject, err
}
