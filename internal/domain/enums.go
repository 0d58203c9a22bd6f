package domain

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
)

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf": FileTypePDF,
}

// UserRole defines what a user may change.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// ValidUserRoles contains all valid user roles.
var ValidUserRoles = map[UserRole]bool{
	RoleAdmin: true,
	RoleUser:  true,
}

// ExtractionMode selects how a document is turned into oracle input.
type ExtractionMode string

const (
	// ModeImage always rasterizes pages.
	ModeImage ExtractionMode = "image"
	// ModeText prefers the text layer and falls back to images.
	ModeText ExtractionMode = "text"
)

// Valid reports whether m is a known extraction mode.
func (m ExtractionMode) Valid() bool {
	return m == ModeImage || m == ModeText
}

// DocumentState is the per-document processing state within a batch run.
type DocumentState string

const (
	DocumentQueued        DocumentState = "QUEUED"
	DocumentPreprocessing DocumentState = "PREPROCESSING"
	DocumentExtracting    DocumentState = "EXTRACTING"
	DocumentResolving     DocumentState = "RESOLVING"
	DocumentPublished     DocumentState = "PUBLISHED"
	DocumentFailed        DocumentState = "FAILED"
)

// Terminal reports whether no further transitions are possible.
func (s DocumentState) Terminal() bool {
	return s == DocumentPublished || s == DocumentFailed
}

// BatchState is the state of a whole batch run.
type BatchState string

const (
	BatchIdle       BatchState = "IDLE"
	BatchProcessing BatchState = "PROCESSING"
	BatchComplete   BatchState = "COMPLETE"
)

// SearchUnbounded asks a customer search for every matching record.
const SearchUnbounded = 0
