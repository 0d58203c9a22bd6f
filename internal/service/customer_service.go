package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"pointake/internal/domain"
	"pointake/internal/port"
)

// CustomerInput is the DTO for creating or replacing a customer record.
type CustomerInput struct {
	CustomerID    string            `json:"customer_id" binding:"required"`
	CustomerNames []string          `json:"customer_names" binding:"required,min=1"`
	SalesOrg      string            `json:"sales_org"`
	ShipTo        map[string]string `json:"ship_to"`
}

// CustomerService defines the customer directory contract. Writes require the admin role.
type CustomerService interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Customer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	Create(ctx context.Context, role domain.UserRole, input CustomerInput) (*domain.Customer, error)
	Update(ctx context.Context, role domain.UserRole, id uuid.UUID, input CustomerInput) (*domain.Customer, error)
	Delete(ctx context.Context, role domain.UserRole, id uuid.UUID) error
}

type customerService struct {
	repo port.CustomerRepository
}

// NewCustomerService creates a new CustomerService implementation.
func NewCustomerService(repo port.CustomerRepository) CustomerService {
	return &customerService{repo: repo}
}

func (s *customerService) Search(ctx context.Context, query string, limit int) ([]domain.Customer, error) {
	if limit < 0 {
		limit = domain.SearchUnbounded
	}
	return s.repo.Search(ctx, strings.TrimSpace(query), limit)
}

func (s *customerService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *customerService) Create(ctx context.Context, role domain.UserRole, input CustomerInput) (*domain.Customer, error) {
	if role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	customer, err := input.toCustomer()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) Update(ctx context.Context, role domain.UserRole, id uuid.UUID, input CustomerInput) (*domain.Customer, error) {
	if role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	customer, err := input.toCustomer()
	if err != nil {
		return nil, err
	}
	customer.ID = existing.ID
	customer.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) Delete(ctx context.Context, role domain.UserRole, id uuid.UUID) error {
	if role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

func (in CustomerInput) toCustomer() (*domain.Customer, error) {
	id := strings.TrimSpace(in.CustomerID)
	if id == "" {
		return nil, fmt.Errorf("%w: customer_id is required", domain.ErrInvalidCustomer)
	}
	names := make([]string, 0, len(in.CustomerNames))
	for _, n := range in.CustomerNames {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: at least one customer name is required", domain.ErrInvalidCustomer)
	}
	shipTo := make(map[string]string, len(in.ShipTo))
	for code, addr := range in.ShipTo {
		code = strings.TrimSpace(code)
		if code == "" {
			return nil, fmt.Errorf("%w: empty ship-to code", domain.ErrInvalidCustomer)
		}
		if _, dup := shipTo[code]; dup {
			return nil, fmt.Errorf("%w: duplicate ship-to code %q", domain.ErrInvalidCustomer, code)
		}
		shipTo[code] = strings.TrimSpace(addr)
	}
	return &domain.Customer{
		CustomerID:    id,
		CustomerNames: names,
		SalesOrg:      strings.TrimSpace(in.SalesOrg),
		ShipTo:        shipTo,
	}, nil
}
