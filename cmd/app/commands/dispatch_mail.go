package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/identity/internal/app"
	"github.com/allisson/identity/internal/config"
	mailerUseCase "github.com/allisson/identity/internal/mailer/usecase"
)

// DispatchMail drains the pending mail queue once and exits. The server
// command runs the same dispatcher on an interval; this command exists for
// operators to force a drain, e.g. after a transport outage.
func DispatchMail(ctx context.Context) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()

	defer closeContainer(container, logger)

	dispatcher, err := container.MailDispatcher()
	if err != nil {
		return fmt.Errorf("failed to initialize mail dispatcher: %w", err)
	}

	return RunDispatchMail(ctx, dispatcher, logger)
}

// RunDispatchMail performs a single dispatch cycle over the pending queue.
func RunDispatchMail(ctx context.Context, dispatcher mailerUseCase.Dispatcher, logger *slog.Logger) error {
	logger.Info("dispatching pending mail")

	if err := dispatcher.DispatchMessages(ctx); err != nil {
		return fmt.Errorf("failed to dispatch mail: %w", err)
	}

	logger.Info("mail dispatch completed")
	return nil
}
