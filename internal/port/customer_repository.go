package port

import (
	"context"

	"github.com/google/uuid"

	"pointake/internal/domain"
)

// CustomerDirectory is the read-only search side of the customer master.
// A limit of domain.SearchUnbounded returns every match.
type CustomerDirectory interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Customer, error)
}

// CustomerRepository defines the contract for customer master persistence.
type CustomerRepository interface {
	CustomerDirectory
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	Create(ctx context.Context, customer *domain.Customer) error
	Update(ctx context.Context, customer *domain.Customer) error
	Upsert(ctx context.Context, customer *domain.Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
}
