package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that may run batches and, as admin, edit the customer directory.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Customer is one record of the customer master directory.
type Customer struct {
	ID            uuid.UUID         `json:"id"`
	CustomerID    string            `json:"customer_id"`
	CustomerNames []string          `json:"customer_names"`
	SalesOrg      string            `json:"sales_org"`
	ShipTo        map[string]string `json:"ship_to"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// MatchesID reports whether id names this customer by either its directory id or its row id.
func (c *Customer) MatchesID(id string) bool {
	if id == "" {
		return false
	}
	return c.CustomerID == id || c.ID.String() == id
}

// Document is one uploaded PDF. It is immutable for the duration of a run.
type Document struct {
	Name      string
	Content   []byte
	SourceURL string
}

// PageImage is a rendered page ready to be sent to the oracle.
type PageImage struct {
	Page     int
	MIMEType string
	Data     []byte
}

// TokenUsage is the oracle token accounting for one call or an aggregate of calls.
type TokenUsage struct {
	PromptTokens   int64 `json:"prompt_tokens"`
	ResponseTokens int64 `json:"response_tokens"`
	TotalTokens    int64 `json:"total_tokens"`
}

// Add returns the sum of u and o. A nil o leaves u unchanged.
func (u TokenUsage) Add(o *TokenUsage) TokenUsage {
	if o == nil {
		return u
	}
	return TokenUsage{
		PromptTokens:   u.PromptTokens + o.PromptTokens,
		ResponseTokens: u.ResponseTokens + o.ResponseTokens,
		TotalTokens:    u.TotalTokens + o.TotalTokens,
	}
}

// SavedResults is the persisted result table of one session.
type SavedResults struct {
	SessionToken string          `json:"-"`
	Username     string          `json:"username"`
	Lines        []ExtractedLine `json:"lines"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
