package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/identity/internal/app"
	"github.com/allisson/identity/internal/config"
	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	cryptoService "github.com/allisson/identity/internal/crypto/service"
)

// CreateKey generates a new current key file for one purpose, or for every
// purpose when all is set. It loads configuration and opens the configured
// KMS keeper before delegating to RunCreateKey.
func CreateKey(ctx context.Context, purposeStr, version string, all bool) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()

	keeper, err := container.KMSKeeper(ctx)
	if err != nil {
		return err
	}

	purposes, err := resolvePurposes(purposeStr, all)
	if err != nil {
		return err
	}

	return RunCreateKey(ctx, cfg.KeysDir, purposes, version, keeper, logger)
}

// RunCreateKey writes a current key file for each given purpose.
// Fails if any purpose already has a current key; rotate-key supersedes
// existing keys instead.
//
// Requirements: the keys directory must be writable. When key wrapping is
// enabled the KMS must be reachable.
func RunCreateKey(
	ctx context.Context,
	dir string,
	purposes []cryptoDomain.Purpose,
	version string,
	keeper cryptoDomain.KMSKeeper,
	logger *slog.Logger,
) error {
	for _, purpose := range purposes {
		if err := cryptoService.GenerateKeyFile(ctx, dir, purpose, version, keeper); err != nil {
			return fmt.Errorf("failed to create key for purpose %s: %w", purpose, err)
		}

		logger.Info("key created",
			slog.String("purpose", purpose.String()),
			slog.String("dir", dir),
		)
	}

	return nil
}

// resolvePurposes expands the purpose flag into the list of purposes to act on.
func resolvePurposes(purposeStr string, all bool) ([]cryptoDomain.Purpose, error) {
	if all {
		return cryptoDomain.Purposes(), nil
	}

	purpose, err := cryptoDomain.ParsePurpose(purposeStr)
	if err != nil {
		return nil, err
	}
	return []cryptoDomain.Purpose{purpose}, nil
}
