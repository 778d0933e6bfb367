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

// LookupEmail resolves an email address to its subject through the blind
// index. There is deliberately no HTTP endpoint for this: an unauthenticated
// lookup would let anyone enumerate which addresses exist, so the operation is
// reserved for operators with CLI access.
func LookupEmail(ctx context.Context, email, format string) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()

	defer closeContainer(container, logger)

	lookupUseCase, err := container.LookupUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize lookup use case: %w", err)
	}

	return RunLookupEmail(ctx, lookupUseCase, logger, os.Stdout, email, format)
}

// RunLookupEmail performs the lookup and writes the resolved subject to out.
// The email itself is never logged; only the outcome is.
func RunLookupEmail(
	ctx context.Context,
	lookupUseCase identityUseCase.LookupUseCase,
	logger *slog.Logger,
	out io.Writer,
	email, format string,
) error {
	subject, err := lookupUseCase.LookupBySecret(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}

	if format == "json" {
		result := map[string]interface{}{
			"subject_id":   subject.ID.String(),
			"subject_kind": string(subject.Kind),
		}
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprintf(out, "Subject: %s (%s)\n", subject.ID, subject.Kind)
	}

	logger.Info("lookup completed", slog.String("subject_kind", string(subject.Kind)))
	return nil
}
