package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pointake/internal/domain"
	"pointake/internal/port"
)

// customerRow is the table shape; names and ship-to are jsonb.
type customerRow struct {
	ID            uuid.UUID `db:"id"`
	CustomerID    string    `db:"customer_id"`
	CustomerNames []byte    `db:"customer_names"`
	SalesOrg      string    `db:"sales_org"`
	ShipTo        []byte    `db:"ship_to"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (row *customerRow) toDomain() (domain.Customer, error) {
	c := domain.Customer{
		ID:         row.ID,
		CustomerID: row.CustomerID,
		SalesOrg:   row.SalesOrg,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if err := json.Unmarshal(row.CustomerNames, &c.CustomerNames); err != nil {
		return c, fmt.Errorf("decoding customer_names of %s: %w", row.CustomerID, err)
	}
	if len(row.ShipTo) > 0 {
		if err := json.Unmarshal(row.ShipTo, &c.ShipTo); err != nil {
			return c, fmt.Errorf("decoding ship_to of %s: %w", row.CustomerID, err)
		}
	}
	return c, nil
}

func encodeCustomer(c *domain.Customer) (names, shipTo string, err error) {
	n, err := json.Marshal(c.CustomerNames)
	if err != nil {
		return "", "", err
	}
	st := c.ShipTo
	if st == nil {
		st = map[string]string{}
	}
	s, err := json.Marshal(st)
	if err != nil {
		return "", "", err
	}
	return string(n), string(s), nil
}

const customerColumns = "id, customer_id, customer_names, sales_org, ship_to, created_at, updated_at"

var searchTokens = regexp.MustCompile(`[A-Za-z0-9]+`)

// SearchPattern turns a free-text query into a case-insensitive regex: the
// alphanumeric tokens in order, with anything allowed between them. An empty
// pattern matches every customer.
func SearchPattern(query string) string {
	return strings.Join(searchTokens.FindAllString(query, -1), ".*")
}

type customerRepo struct {
	db *sqlx.DB
}

// NewCustomerRepo creates a new PostgreSQL-backed CustomerRepository.
func NewCustomerRepo(db *sqlx.DB) port.CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) Search(ctx context.Context, query string, limit int) ([]domain.Customer, error) {
	var lim sql.NullInt64
	if limit > 0 {
		lim = sql.NullInt64{Int64: int64(limit), Valid: true}
	}

	var rows []customerRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+customerColumns+` FROM customers c
		 WHERE $1 = ''
		    OR c.customer_id ~* $1
		    OR EXISTS (SELECT 1 FROM jsonb_array_elements_text(c.customer_names) AS n(name) WHERE n.name ~* $1)
		 ORDER BY c.customer_id
		 LIMIT $2`,
		SearchPattern(query), lim)
	if err != nil {
		return nil, fmt.Errorf("customerRepo.Search: %w", err)
	}

	out := make([]domain.Customer, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("customerRepo.Search: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *customerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	var row customerRow
	err := r.db.GetContext(ctx, &row, "SELECT "+customerColumns+" FROM customers WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("customerRepo.GetByID: %w", err)
	}
	c, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("customerRepo.GetByID: %w", err)
	}
	return &c, nil
}

func (r *customerRepo) Create(ctx context.Context, c *domain.Customer) error {
	c.ID = uuid.New()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	names, shipTo, err := encodeCustomer(c)
	if err != nil {
		return fmt.Errorf("customerRepo.Create: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO customers (id, customer_id, customer_names, sales_org, ship_to, created_at, updated_at)
		 VALUES ($1, $2, $3::jsonb, $4, $5::jsonb, $6, $7)`,
		c.ID, c.CustomerID, names, c.SalesOrg, shipTo, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateCustomer
		}
		return fmt.Errorf("customerRepo.Create: %w", err)
	}
	return nil
}

func (r *customerRepo) Update(ctx context.Context, c *domain.Customer) error {
	c.UpdatedAt = time.Now().UTC()
	names, shipTo, err := encodeCustomer(c)
	if err != nil {
		return fmt.Errorf("customerRepo.Update: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE customers SET customer_id = $1, customer_names = $2::jsonb, sales_org = $3,
		 ship_to = $4::jsonb, updated_at = $5 WHERE id = $6`,
		c.CustomerID, names, c.SalesOrg, shipTo, c.UpdatedAt, c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateCustomer
		}
		return fmt.Errorf("customerRepo.Update: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Upsert inserts c or replaces the record with the same customer_id.
func (r *customerRepo) Upsert(ctx context.Context, c *domain.Customer) error {
	now := time.Now().UTC()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	names, shipTo, err := encodeCustomer(c)
	if err != nil {
		return fmt.Errorf("customerRepo.Upsert: %w", err)
	}

	err = r.db.GetContext(ctx, &c.ID,
		`INSERT INTO customers (id, customer_id, customer_names, sales_org, ship_to, created_at, updated_at)
		 VALUES ($1, $2, $3::jsonb, $4, $5::jsonb, $6, $7)
		 ON CONFLICT (customer_id) DO UPDATE SET
		   customer_names = EXCLUDED.customer_names,
		   sales_org = EXCLUDED.sales_org,
		   ship_to = EXCLUDED.ship_to,
		   updated_at = EXCLUDED.updated_at
		 RETURNING id`,
		c.ID, c.CustomerID, names, c.SalesOrg, shipTo, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("customerRepo.Upsert: %w", err)
	}
	return nil
}

func (r *customerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("customerRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
