package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pointake/internal/domain"
)

// MockResultRepo is a mock implementation of port.ResultRepository.
type MockResultRepo struct {
	mock.Mock
}

func (m *MockResultRepo) Save(ctx context.Context, results *domain.SavedResults) error {
	args := m.Called(ctx, results)
	return args.Error(0)
}

func (m *MockResultRepo) Get(ctx context.Context, sessionToken string) (*domain.SavedResults, error) {
	args := m.Called(ctx, sessionToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SavedResults), args.Error(1)
}

func (m *MockResultRepo) Delete(ctx context.Context, sessionToken string) error {
	args := m.Called(ctx, sessionToken)
	return args.Error(0)
}
