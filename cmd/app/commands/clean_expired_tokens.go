package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/allisson/identity/internal/app"
	"github.com/allisson/identity/internal/config"
	identityUseCase "github.com/allisson/identity/internal/identity/usecase"
)

// CleanExpiredTokens deletes every verification token past its expiry.
// It builds the DI container and delegates to RunCleanExpiredTokens.
func CleanExpiredTokens(ctx context.Context, format string) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()

	defer closeContainer(container, logger)

	maintenanceUseCase, err := container.MaintenanceUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize maintenance use case: %w", err)
	}

	return RunCleanExpiredTokens(ctx, maintenanceUseCase, logger, os.Stdout, format)
}

// RunCleanExpiredTokens removes expired tokens and reports the count in the
// requested output format ("text" or "json").
//
// Requirements: Database must be migrated and accessible.
func RunCleanExpiredTokens(
	ctx context.Context,
	maintenanceUseCase identityUseCase.MaintenanceUseCase,
	logger *slog.Logger,
	out io.Writer,
	format string,
) error {
	logger.Info("cleaning expired tokens")

	count, err := maintenanceUseCase.DeleteExpiredTokens(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	if format == "json" {
		result := map[string]interface{}{
			"count": count,
		}
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprintf(out, "Successfully deleted %d expired token(s)\n", count)
	}

	logger.Info("cleanup completed", slog.Int64("count", count))
	return nil
}
