package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pointake/internal/domain"
	"pointake/internal/service"
	"pointake/mocks"
)

func validCustomerInput() service.CustomerInput {
	return service.CustomerInput{
		CustomerID:    " C100 ",
		CustomerNames: []string{"Acme Corporation", "  ", "ACME Corp"},
		SalesOrg:      "SO-10",
		ShipTo:        map[string]string{"SH-1": " 12 Dock Rd "},
	}
}

func TestCustomerService_Search_NegativeLimitIsUnbounded(t *testing.T) {
	repo := new(mocks.MockCustomerRepo)
	repo.On("Search", mock.Anything, "acme", domain.SearchUnbounded).Return([]domain.Customer{}, nil)

	_, err := service.NewCustomerService(repo).Search(context.Background(), " acme ", -1)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCustomerService_Create_RequiresAdmin(t *testing.T) {
	repo := new(mocks.MockCustomerRepo)

	_, err := service.NewCustomerService(repo).Create(context.Background(), domain.RoleUser, validCustomerInput())

	assert.ErrorIs(t, err, domain.ErrForbidden)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCustomerService_Create_Normalizes(t *testing.T) {
	repo := new(mocks.MockCustomerRepo)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Customer")).Return(nil)

	c, err := service.NewCustomerService(repo).Create(context.Background(), domain.RoleAdmin, validCustomerInput())

	require.NoError(t, err)
	assert.Equal(t, "C100", c.CustomerID)
	assert.Equal(t, []string{"Acme Corporation", "ACME Corp"}, c.CustomerNames)
	assert.Equal(t, "12 Dock Rd", c.ShipTo["SH-1"])
}

func TestCustomerService_Create_RejectsInvalid(t *testing.T) {
	repo := new(mocks.MockCustomerRepo)
	svc := service.NewCustomerService(repo)

	in := validCustomerInput()
	in.CustomerNames = []string{" "}
	_, err := svc.Create(context.Background(), domain.RoleAdmin, in)
	assert.ErrorIs(t, err, domain.ErrInvalidCustomer)

	in = validCustomerInput()
	in.ShipTo = map[string]string{"SH-1": "a", " SH-1 ": "b"}
	_, err = svc.Create(context.Background(), domain.RoleAdmin, in)
	assert.ErrorIs(t, err, domain.ErrInvalidCustomer)
}

func TestCustomerService_Update_KeepsIdentity(t *testing.T) {
	repo := new(mocks.MockCustomerRepo)
	id := uuid.New()
	created := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	repo.On("GetByID", mock.Anything, id).Return(&domain.Customer{ID: id, CreatedAt: created}, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(c *domain.Customer) bool {
		return c.ID == id && c.CreatedAt.Equal(created)
	})).Return(nil)

	c, err := service.NewCustomerService(repo).Update(context.Background(), domain.RoleAdmin, id, validCustomerInput())

	require.NoError(t, err)
	assert.Equal(t, id, c.ID)
	repo.AssertExpectations(t)
}

func TestCustomerService_Update_NotFound(t *testing.T) {
	repo := new(mocks.MockCustomerRepo)
	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(nil, domain.ErrNotFound)

	_, err := service.NewCustomerService(repo).Update(context.Background(), domain.RoleAdmin, id, validCustomerInput())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCustomerService_Delete(t *testing.T) {
	repo := new(mocks.MockCustomerRepo)
	id := uuid.New()
	repo.On("Delete", mock.Anything, id).Return(nil)
	svc := service.NewCustomerService(repo)

	assert.ErrorIs(t, svc.Delete(context.Background(), domain.RoleUser, id), domain.ErrForbidden)
	assert.NoError(t, svc.Delete(context.Background(), domain.RoleAdmin, id))
	repo.AssertNumberOfCalls(t, "Delete", 1)
}
