package handler

import (
	"pointake/internal/domain"
)

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// --- Request Types ---

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"planner1"`
	Password string `json:"password" binding:"required" example:"securepassword123"`
}

// CustomerRequest represents the create or update customer request body.
type CustomerRequest struct {
	CustomerID    string            `json:"customer_id" binding:"required" example:"C100234"`
	CustomerNames []string          `json:"customer_names" binding:"required" example:"Acme Industrial Ltd,ACME IND."`
	SalesOrg      string            `json:"sales_org" example:"SO-10"`
	ShipTo        map[string]string `json:"ship_to" example:"SH-1:12 Harbour Rd Leeds,SH-2:Unit 4 Dock St Hull"`
}

// SaveResultsRequest is the body of POST /results.
type SaveResultsRequest struct {
	Lines []domain.ExtractedLine `json:"lines"`
}

// --- Response Types ---

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty" example:"database not reachable"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message" example:"operation completed successfully"`
}

// --- Generic Response Wrappers ---

// Response wraps a successful response with data.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}
