package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	cryptoService "github.com/allisson/identity/internal/crypto/service"
	"github.com/allisson/identity/internal/database"
	"github.com/allisson/identity/internal/mailer/domain"
)

// DispatcherConfig holds dispatcher use case configuration
type DispatcherConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	PerSecond  float64
}

// Transport defines the interface for delivering a single rendered message
type Transport interface {
	Send(ctx context.Context, template string, payload *domain.MailPayload) error
}

// Dispatcher defines the interface for the mail dispatch loop
type Dispatcher interface {
	Start(ctx context.Context) error
	DispatchMessages(ctx context.Context) error
}

// DispatcherUseCase drains pending mail messages in batches. Each batch runs
// in a transaction so FOR UPDATE SKIP LOCKED keeps concurrent dispatchers
// from double-sending, and outbound sends are paced by a rate limiter.
type DispatcherUseCase struct {
	config      DispatcherConfig
	txManager   database.TxManager
	mailRepo    MailMessageRepository
	fieldCipher cryptoService.FieldCipher
	transport   Transport
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// NewDispatcherUseCase creates a new DispatcherUseCase
func NewDispatcherUseCase(
	config DispatcherConfig,
	txManager database.TxManager,
	mailRepo MailMessageRepository,
	fieldCipher cryptoService.FieldCipher,
	transport Transport,
	logger *slog.Logger,
) *DispatcherUseCase {
	return &DispatcherUseCase{
		config:      config,
		txManager:   txManager,
		mailRepo:    mailRepo,
		fieldCipher: fieldCipher,
		transport:   transport,
		limiter:     rate.NewLimiter(rate.Limit(config.PerSecond), 1),
		logger:      logger,
	}
}

// Start starts the mail dispatch loop
func (uc *DispatcherUseCase) Start(ctx context.Context) error {
	if uc.logger != nil {
		uc.logger.Info("starting mail dispatcher",
			slog.Duration("interval", uc.config.Interval),
			slog.Int("batch_size", uc.config.BatchSize),
		)
	}

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if uc.logger != nil {
				uc.logger.Info("stopping mail dispatcher")
			}
			return ctx.Err()
		case <-ticker.C:
			if err := uc.DispatchMessages(ctx); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to dispatch messages", slog.Any("error", err))
				}
			}
		}
	}
}

// DispatchMessages retrieves and sends pending messages in a transaction
func (uc *DispatcherUseCase) DispatchMessages(ctx context.Context) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		messages, err := uc.mailRepo.GetPendingMessages(ctx, uc.config.BatchSize)
		if err != nil {
			return err
		}

		if len(messages) == 0 {
			return nil
		}

		if uc.logger != nil {
			uc.logger.Info("dispatching messages", slog.Int("count", len(messages)))
		}

		for _, message := range messages {
			if err := uc.limiter.Wait(ctx); err != nil {
				return err
			}

			if err := uc.dispatchMessage(ctx, message); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to dispatch message",
						slog.String("message_id", message.ID.String()),
						slog.String("template", message.Template),
						slog.Any("error", err),
					)
				}

				message.Retries++
				errorMsg := err.Error()
				message.LastError = &errorMsg

				if message.Retries >= uc.config.MaxRetries {
					message.Status = domain.MailStatusFailed
				}

				if err := uc.mailRepo.Update(ctx, message); err != nil {
					return err
				}
				continue
			}

			now := time.Now()
			message.Status = domain.MailStatusSent
			message.SentAt = &now

			if err := uc.mailRepo.Update(ctx, message); err != nil {
				return err
			}
		}

		return nil
	})
}

// dispatchMessage opens the sealed body and hands the payload to the transport
func (uc *DispatcherUseCase) dispatchMessage(ctx context.Context, message *domain.MailMessage) error {
	plaintext, err := uc.fieldCipher.Decrypt(cryptoDomain.PurposeEmailSeal, message.Body)
	if err != nil {
		return err
	}
	defer plaintext.Close()

	var payload domain.MailPayload
	if err := json.Unmarshal(plaintext.Bytes(), &payload); err != nil {
		return err
	}

	return uc.transport.Send(ctx, message.Template, &payload)
}

// LogTransport is a Transport that records deliveries in the application log
// instead of sending real email. Payload contents are never logged.
type LogTransport struct {
	logger *slog.Logger
}

// NewLogTransport creates a new LogTransport
func NewLogTransport(logger *slog.Logger) *LogTransport {
	return &LogTransport{
		logger: logger,
	}
}

// Send logs the delivery
func (t *LogTransport) Send(ctx context.Context, template string, payload *domain.MailPayload) error {
	if t.logger != nil {
		t.logger.Info("mail delivery",
			slog.String("template", template),
		)
	}
	return nil
}
