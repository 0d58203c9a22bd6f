package port

import (
	"context"

	"pointake/internal/domain"
)

// ContentPart is one piece of oracle input: either text or an inline image.
type ContentPart struct {
	Text     string
	MIMEType string
	Data     []byte
}

// TextPart returns a text content part.
func TextPart(s string) ContentPart {
	return ContentPart{Text: s}
}

// ImagePart returns an inline image content part.
func ImagePart(mimeType string, data []byte) ContentPart {
	return ContentPart{MIMEType: mimeType, Data: data}
}

// IsImage reports whether the part carries inline image bytes.
func (p ContentPart) IsImage() bool {
	return len(p.Data) > 0
}

// GenerateRequest is a single structured-output call to a generative model.
type GenerateRequest struct {
	Instruction string
	Parts       []ContentPart
	SchemaName  string
	Schema      map[string]any // JSON schema the output must satisfy
	Temperature float64
}

// GenerateResponse is the raw model output. Usage is nil when the provider reports none.
type GenerateResponse struct {
	Text  string
	Model string
	Usage *domain.TokenUsage
}

// Generator abstracts a generative model provider.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}
