// Package gemini implements port.Generator on Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"pointake/internal/config"
	"pointake/internal/domain"
	"pointake/internal/oracle"
	"pointake/internal/port"
)

const (
	providerName = "gemini"
	defaultModel = "gemini-2.5-flash"
)

func init() {
	oracle.RegisterProvider(providerName, func(cfg *config.OracleProviderConfig, model string) (port.Generator, error) {
		return NewGenerator(context.Background(), cfg, model)
	})
}

// Generator calls Gemini's generateContent with a response schema.
type Generator struct {
	client *genai.Client
	model  string
}

// NewGenerator creates a Gemini generator. cfg.BaseURL overrides the API endpoint.
func NewGenerator(ctx context.Context, cfg *config.OracleProviderConfig, model string) (*Generator, error) {
	if model == "" {
		model = defaultModel
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout()},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Generator{client: client, model: model}, nil
}

func (g *Generator) Generate(ctx context.Context, req port.GenerateRequest) (*port.GenerateResponse, error) {
	parts := make([]*genai.Part, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.IsImage() {
			parts = append(parts, genai.NewPartFromBytes(p.Data, p.MIMEType))
			continue
		}
		parts = append(parts, genai.NewPartFromText(p.Text))
	}

	gc := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(req.Temperature)),
		ResponseMIMEType: "application/json",
	}
	if req.Instruction != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.Instruction, genai.RoleUser)
	}
	if req.Schema != nil {
		gc.ResponseSchema = convertSchema(req.Schema)
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, gc)
	if err != nil {
		return nil, mapError(err)
	}

	out := &port.GenerateResponse{Text: resp.Text(), Model: g.model}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = &domain.TokenUsage{
			PromptTokens:   int64(u.PromptTokenCount),
			ResponseTokens: int64(u.CandidatesTokenCount),
			TotalTokens:    int64(u.TotalTokenCount),
		}
	}
	return out, nil
}

func mapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return oracle.NewError(providerName, apiErr.Code, apiErr.Status, 0, err)
	}
	return oracle.NewError(providerName, 0, "", 0, err)
}

// convertSchema maps the JSON schema subset used by the oracle package onto
// genai.Schema. Union types keep their first non-null member.
func convertSchema(s map[string]any) *genai.Schema {
	out := &genai.Schema{}
	switch t := s["type"].(type) {
	case string:
		out.Type = schemaType(t)
	case []any:
		for _, v := range t {
			name, _ := v.(string)
			if name == "null" {
				out.Nullable = genai.Ptr(true)
				continue
			}
			if out.Type == "" {
				out.Type = schemaType(name)
			}
		}
	}
	if d, ok := s["description"].(string); ok {
		out.Description = d
	}
	if props, ok := s["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, v := range props {
			if m, ok := v.(map[string]any); ok {
				out.Properties[name] = convertSchema(m)
			}
		}
	}
	if items, ok := s["items"].(map[string]any); ok {
		out.Items = convertSchema(items)
	}
	if req, ok := s["required"].([]any); ok {
		for _, v := range req {
			if name, ok := v.(string); ok {
				out.Required = append(out.Required, name)
			}
		}
	}
	return out
}

func schemaType(name string) genai.Type {
	switch name {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	default:
		return genai.TypeObject
	}
}
