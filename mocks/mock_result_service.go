package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pointake/internal/domain"
)

// MockResultService is a mock implementation of service.ResultService.
type MockResultService struct {
	mock.Mock
}

func (m *MockResultService) Save(ctx context.Context, sessionToken, username string, lines []domain.ExtractedLine) (*domain.SavedResults, error) {
	args := m.Called(ctx, sessionToken, username, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SavedResults), args.Error(1)
}

func (m *MockResultService) Get(ctx context.Context, sessionToken string) (*domain.SavedResults, error) {
	args := m.Called(ctx, sessionToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SavedResults), args.Error(1)
}

func (m *MockResultService) Clear(ctx context.Context, sessionToken string) error {
	args := m.Called(ctx, sessionToken)
	return args.Error(0)
}
