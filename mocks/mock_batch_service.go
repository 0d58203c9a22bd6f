package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"pointake/internal/batch"
	"pointake/internal/service"
)

// MockBatchService is a mock implementation of service.BatchService.
type MockBatchService struct {
	mock.Mock
}

func (m *MockBatchService) Start(ctx context.Context, userID uuid.UUID, input service.StartBatchInput) (*batch.Snapshot, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*batch.Snapshot), args.Error(1)
}

func (m *MockBatchService) Get(ctx context.Context, userID uuid.UUID, runID string) (*batch.Snapshot, error) {
	args := m.Called(ctx, userID, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*batch.Snapshot), args.Error(1)
}
