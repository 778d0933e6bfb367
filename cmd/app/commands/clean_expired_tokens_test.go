package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMaintenanceUseCase is a mock implementation of usecase.MaintenanceUseCase.
type MockMaintenanceUseCase struct {
	mock.Mock
}

func (m *MockMaintenanceUseCase) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestRunCleanExpiredTokens(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("text-output", func(t *testing.T) {
		mockUseCase := &MockMaintenanceUseCase{}
		mockUseCase.On("DeleteExpiredTokens", ctx).Return(int64(100), nil)

		var out bytes.Buffer
		err := RunCleanExpiredTokens(ctx, mockUseCase, logger, &out, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Successfully deleted 100 expired token(s)")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		mockUseCase := &MockMaintenanceUseCase{}
		mockUseCase.On("DeleteExpiredTokens", ctx).Return(int64(50), nil)

		var out bytes.Buffer
		err := RunCleanExpiredTokens(ctx, mockUseCase, logger, &out, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"count": 50`)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("use-case-error", func(t *testing.T) {
		mockUseCase := &MockMaintenanceUseCase{}
		mockUseCase.On("DeleteExpiredTokens", ctx).Return(int64(0), errors.New("database down"))

		err := RunCleanExpiredTokens(ctx, mockUseCase, logger, &bytes.Buffer{}, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to delete expired tokens")
	})
}
