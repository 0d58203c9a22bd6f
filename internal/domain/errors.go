package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrNoDocuments         = errors.New("batch contains no documents")
	ErrTooManyDocuments    = errors.New("batch contains too many documents")
	ErrInvalidRole         = errors.New("invalid user role")
	ErrInvalidCustomer     = errors.New("invalid customer record")
	ErrInvalidMode         = errors.New("invalid extraction mode")
	ErrDuplicateUsername   = errors.New("username already exists")
	ErrDuplicateCustomer   = errors.New("customer id already exists")
	ErrUploadFailed        = errors.New("file upload to storage failed")
	ErrDocumentParse       = errors.New("document could not be parsed")
)

// DocumentParseError reports a document that could not be opened, read or rendered.
// It matches both ErrDocumentParse and the underlying cause with errors.Is.
type DocumentParseError struct {
	Document string
	Err      error
}

func (e *DocumentParseError) Error() string {
	return fmt.Sprintf("parse document %q: %v", e.Document, e.Err)
}

func (e *DocumentParseError) Unwrap() []error {
	return []error{ErrDocumentParse, e.Err}
}

// ResolutionError is a failure inside one entity resolution stage. It is logged and
// absorbed; it never fails a line or a document.
type ResolutionError struct {
	Stage    string
	Customer string
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s for %q: %v", e.Stage, e.Customer, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
