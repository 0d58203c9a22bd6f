package port

import (
	"context"

	"pointake/internal/domain"
)

// ResultRepository stores the edited result table of a session, keyed by session token.
type ResultRepository interface {
	Save(ctx context.Context, results *domain.SavedResults) error
	Get(ctx context.Context, sessionToken string) (*domain.SavedResults, error)
	Delete(ctx context.Context, sessionToken string) error
}
