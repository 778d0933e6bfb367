package usecase

import (
	"context"
	"time"
)

// MaintenanceUseCaseImpl implements periodic housekeeping for the token store.
type MaintenanceUseCaseImpl struct {
	tokenRepo TokenRepository
}

// NewMaintenanceUseCase creates a new MaintenanceUseCaseImpl
func NewMaintenanceUseCase(tokenRepo TokenRepository) *MaintenanceUseCaseImpl {
	return &MaintenanceUseCaseImpl{tokenRepo: tokenRepo}
}

// DeleteExpiredTokens removes every token whose TTL has elapsed, used or not,
// and returns the number of rows deleted.
func (uc *MaintenanceUseCaseImpl) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	return uc.tokenRepo.DeleteExpired(ctx, time.Now().UTC())
}
