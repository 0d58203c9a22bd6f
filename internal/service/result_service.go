package service

import (
	"context"
	"errors"
	"time"

	"pointake/internal/domain"
	"pointake/internal/port"
)

// ResultService persists the edited result table of a session.
type ResultService interface {
	Save(ctx context.Context, sessionToken, username string, lines []domain.ExtractedLine) (*domain.SavedResults, error)
	Get(ctx context.Context, sessionToken string) (*domain.SavedResults, error)
	Clear(ctx context.Context, sessionToken string) error
}

type resultService struct {
	repo port.ResultRepository
}

// NewResultService creates a new ResultService implementation.
func NewResultService(repo port.ResultRepository) ResultService {
	return &resultService{repo: repo}
}

// Save replaces the stored lines for sessionToken. Delivery addresses and source
// URLs are not stored.
func (s *resultService) Save(ctx context.Context, sessionToken, username string, lines []domain.ExtractedLine) (*domain.SavedResults, error) {
	if sessionToken == "" {
		return nil, domain.ErrUnauthorized
	}
	stored := make([]domain.ExtractedLine, len(lines))
	for i := range lines {
		stored[i] = lines[i].ForStorage()
	}
	results := &domain.SavedResults{
		SessionToken: sessionToken,
		Username:     username,
		Lines:        stored,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Save(ctx, results); err != nil {
		return nil, err
	}
	return results, nil
}

// Get returns the saved lines for sessionToken. A session with nothing saved
// gets an empty result rather than ErrNotFound.
func (s *resultService) Get(ctx context.Context, sessionToken string) (*domain.SavedResults, error) {
	if sessionToken == "" {
		return nil, domain.ErrUnauthorized
	}
	results, err := s.repo.Get(ctx, sessionToken)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.SavedResults{SessionToken: sessionToken, Lines: []domain.ExtractedLine{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *resultService) Clear(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return domain.ErrUnauthorized
	}
	return s.repo.Delete(ctx, sessionToken)
}
