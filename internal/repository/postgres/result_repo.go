package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"pointake/internal/domain"
	"pointake/internal/port"
)

type resultRow struct {
	SessionToken string    `db:"session_token"`
	Username     string    `db:"username"`
	Lines        []byte    `db:"lines"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type resultRepo struct {
	db *sqlx.DB
}

// NewResultRepo creates a new PostgreSQL-backed ResultRepository.
func NewResultRepo(db *sqlx.DB) port.ResultRepository {
	return &resultRepo{db: db}
}

func (r *resultRepo) Save(ctx context.Context, results *domain.SavedResults) error {
	lines := results.Lines
	if lines == nil {
		lines = []domain.ExtractedLine{}
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("resultRepo.Save: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO results (session_token, username, lines, updated_at)
		 VALUES ($1, $2, $3::jsonb, $4)
		 ON CONFLICT (session_token) DO UPDATE SET
		   username = EXCLUDED.username,
		   lines = EXCLUDED.lines,
		   updated_at = EXCLUDED.updated_at`,
		results.SessionToken, results.Username, string(payload), results.UpdatedAt)
	if err != nil {
		return fmt.Errorf("resultRepo.Save: %w", err)
	}
	return nil
}

func (r *resultRepo) Get(ctx context.Context, sessionToken string) (*domain.SavedResults, error) {
	var row resultRow
	err := r.db.GetContext(ctx, &row,
		"SELECT session_token, username, lines, updated_at FROM results WHERE session_token = $1", sessionToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("resultRepo.Get: %w", err)
	}

	results := &domain.SavedResults{
		SessionToken: row.SessionToken,
		Username:     row.Username,
		UpdatedAt:    row.UpdatedAt,
	}
	if err := json.Unmarshal(row.Lines, &results.Lines); err != nil {
		return nil, fmt.Errorf("resultRepo.Get: decoding lines: %w", err)
	}
	return results, nil
}

// Delete removes the saved lines of a session. Deleting nothing is not an error.
func (r *resultRepo) Delete(ctx context.Context, sessionToken string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM results WHERE session_token = $1", sessionToken); err != nil {
		return fmt.Errorf("resultRepo.Delete: %w", err)
	}
	return nil
}
