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

// RotateKey supersedes the current key for one purpose, or for every purpose
// when all is set. It loads configuration and opens the configured KMS keeper
// before delegating to RunRotateKey.
func RotateKey(ctx context.Context, purposeStr, version string, all bool) error {
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

	return RunRotateKey(ctx, cfg.KeysDir, purposes, version, keeper, logger)
}

// RunRotateKey retires the current key file for each given purpose and writes
// a fresh key as the new current version. Running servers pick the rotation
// up on next start; until then lookups still match rows written under the
// retired version through the candidate hash list.
func RunRotateKey(
	ctx context.Context,
	dir string,
	purposes []cryptoDomain.Purpose,
	version string,
	keeper cryptoDomain.KMSKeeper,
	logger *slog.Logger,
) error {
	for _, purpose := range purposes {
		if err := cryptoService.RotateKeyFiles(ctx, dir, purpose, version, keeper); err != nil {
			return fmt.Errorf("failed to rotate key for purpose %s: %w", purpose, err)
		}

		logger.Info("key rotated",
			slog.String("purpose", purpose.String()),
			slog.String("dir", dir),
		)
	}

	return nil
}
