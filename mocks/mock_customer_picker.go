package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pointake/internal/domain"
)

// MockCustomerPicker is a mock implementation of resolver.CustomerPicker.
type MockCustomerPicker struct {
	mock.Mock
}

func (m *MockCustomerPicker) PickCustomer(ctx context.Context, name string, candidates []domain.Customer) (string, error) {
	args := m.Called(ctx, name, candidates)
	return args.String(0), args.Error(1)
}

func (m *MockCustomerPicker) PickShipTo(ctx context.Context, address string, shipTo map[string]string) (string, error) {
	args := m.Called(ctx, address, shipTo)
	return args.String(0), args.Error(1)
}
