package handler_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"pointake/internal/domain"
	"pointake/internal/handler"
	"pointake/internal/service"
	"pointake/mocks"
)

func TestCustomerHandler_Search_Limits(t *testing.T) {
	tests := []struct {
		name  string
		query string
		limit int
	}{
		{"default", "/api/v1/customers/search?q=acme", handler.DefaultSearchLimit},
		{"unbounded", "/api/v1/customers/search?q=acme&limit=none", domain.SearchUnbounded},
		{"explicit", "/api/v1/customers/search?q=acme&limit=5", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(mocks.MockCustomerService)
			h := handler.NewCustomerHandler(mockSvc)
			mockSvc.On("Search", mock.Anything, "acme", tt.limit).
				Return([]domain.Customer{{CustomerID: "C100", CustomerNames: []string{"Acme"}}}, nil)

			c, w := newContext(http.MethodGet, tt.query, nil, &planner)
			h.Search(c)

			assert.Equal(t, http.StatusOK, w.Code)
			resp := decode(t, w)
			assert.Len(t, resp.Data, 1)
			assert.Equal(t, 1, resp.Meta.Total)
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestCustomerHandler_Search_InvalidLimit(t *testing.T) {
	mockSvc := new(mocks.MockCustomerService)
	h := handler.NewCustomerHandler(mockSvc)

	for _, limit := range []string{"abc", "-3"} {
		c, w := newContext(http.MethodGet, "/api/v1/customers/search?q=a&limit="+limit, nil, &planner)
		h.Search(c)
		assert.Equal(t, http.StatusBadRequest, w.Code, limit)
	}
	mockSvc.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestCustomerHandler_Create(t *testing.T) {
	mockSvc := new(mocks.MockCustomerService)
	h := handler.NewCustomerHandler(mockSvc)

	input := service.CustomerInput{
		CustomerID:    "C100",
		CustomerNames: []string{"Acme Corp"},
		SalesOrg:      "SO-10",
		ShipTo:        map[string]string{"SH-1": "12 Harbour Rd"},
	}
	mockSvc.On("Create", mock.Anything, domain.RoleAdmin, input).
		Return(&domain.Customer{ID: uuid.New(), CustomerID: "C100"}, nil)

	c, w := newContext(http.MethodPost, "/api/v1/customers", jsonBody(t, input), &admin)
	jsonRequest(c)
	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestCustomerHandler_Create_ForbiddenForUser(t *testing.T) {
	mockSvc := new(mocks.MockCustomerService)
	h := handler.NewCustomerHandler(mockSvc)

	mockSvc.On("Create", mock.Anything, domain.RoleUser, mock.Anything).Return(nil, domain.ErrForbidden)

	c, w := newContext(http.MethodPost, "/api/v1/customers",
		jsonBody(t, map[string]any{"customer_id": "C1", "customer_names": []string{"X"}}), &planner)
	jsonRequest(c)
	h.Create(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCustomerHandler_Create_ValidationError(t *testing.T) {
	mockSvc := new(mocks.MockCustomerService)
	h := handler.NewCustomerHandler(mockSvc)

	c, w := newContext(http.MethodPost, "/api/v1/customers",
		jsonBody(t, map[string]any{"customer_id": "C1"}), &admin)
	jsonRequest(c)
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w).Error.Code)
}

func TestCustomerHandler_Update_NotFound(t *testing.T) {
	mockSvc := new(mocks.MockCustomerService)
	h := handler.NewCustomerHandler(mockSvc)
	id := uuid.New()

	mockSvc.On("Update", mock.Anything, domain.RoleAdmin, id, mock.Anything).Return(nil, domain.ErrNotFound)

	c, w := newContext(http.MethodPut, "/api/v1/customers/"+id.String(),
		jsonBody(t, map[string]any{"customer_id": "C1", "customer_names": []string{"X"}}), &admin)
	jsonRequest(c)
	c.AddParam("id", id.String())
	h.Update(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCustomerHandler_GetByID_InvalidID(t *testing.T) {
	h := handler.NewCustomerHandler(new(mocks.MockCustomerService))

	c, w := newContext(http.MethodGet, "/api/v1/customers/nope", nil, &planner)
	c.AddParam("id", "nope")
	h.GetByID(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", decode(t, w).Error.Code)
}

func TestCustomerHandler_Delete(t *testing.T) {
	mockSvc := new(mocks.MockCustomerService)
	h := handler.NewCustomerHandler(mockSvc)
	id := uuid.New()

	mockSvc.On("Delete", mock.Anything, domain.RoleAdmin, id).Return(nil)

	c, w := newContext(http.MethodDelete, "/api/v1/customers/"+id.String(), nil, &admin)
	c.AddParam("id", id.String())
	h.Delete(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}
