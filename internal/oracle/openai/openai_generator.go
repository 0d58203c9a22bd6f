// Package openai implements port.Generator on OpenAI chat completions.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"pointake/internal/config"
	"pointake/internal/domain"
	"pointake/internal/oracle"
	"pointake/internal/port"
)

const (
	providerName = "openai"
	defaultModel = "gpt-4o-mini"
	// wrapKey holds non-object schemas, since response_format requires an object root.
	wrapKey = "items"
)

func init() {
	oracle.RegisterProvider(providerName, func(cfg *config.OracleProviderConfig, model string) (port.Generator, error) {
		return NewGenerator(cfg, model), nil
	})
}

// Generator calls the chat completions API with a JSON schema response format.
type Generator struct {
	client openai.Client
	model  string
}

// NewGenerator creates an OpenAI generator. cfg.BaseURL points it at any
// OpenAI-compatible endpoint.
func NewGenerator(cfg *config.OracleProviderConfig, model string) *Generator {
	if model == "" {
		model = defaultModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout()),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Generator{client: openai.NewClient(opts...), model: model}
}

func (g *Generator) Generate(ctx context.Context, req port.GenerateRequest) (*port.GenerateResponse, error) {
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.IsImage() {
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: "data:" + p.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.Data),
			}))
			continue
		}
		parts = append(parts, openai.TextContentPart(p.Text))
	}

	params := openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.Instruction),
			openai.UserMessage(parts),
		},
		Temperature: openai.Float(req.Temperature),
	}

	wrapped := false
	if req.Schema != nil {
		schema := req.Schema
		if t, _ := schema["type"].(string); t != "object" {
			schema = map[string]any{
				"type":       "object",
				"properties": map[string]any{wrapKey: req.Schema},
				"required":   []any{wrapKey},
			}
			wrapped = true
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.SchemaName,
					Schema: schema,
					Strict: openai.Bool(false),
				},
			},
		}
	}

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, mapError(err)
	}
	if len(completion.Choices) == 0 {
		return &port.GenerateResponse{Model: completion.Model, Usage: toUsage(completion.Usage)}, nil
	}

	text := completion.Choices[0].Message.Content
	if wrapped && text != "" {
		text, err = unwrap(text)
		if err != nil {
			return nil, oracle.InvalidOutput(providerName, err)
		}
	}
	return &port.GenerateResponse{Text: text, Model: completion.Model, Usage: toUsage(completion.Usage)}, nil
}

func unwrap(text string) (string, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return "", fmt.Errorf("output is not a JSON object: %w", err)
	}
	inner, ok := env[wrapKey]
	if !ok {
		return "", fmt.Errorf("output has no %q field", wrapKey)
	}
	return string(inner), nil
}

func toUsage(u openai.CompletionUsage) *domain.TokenUsage {
	if u.TotalTokens == 0 && u.PromptTokens == 0 && u.CompletionTokens == 0 {
		return nil
	}
	return &domain.TokenUsage{
		PromptTokens:   u.PromptTokens,
		ResponseTokens: u.CompletionTokens,
		TotalTokens:    u.TotalTokens,
	}
}

func mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		var retryAfter string
		if apiErr.Response != nil {
			retryAfter = apiErr.Response.Header.Get("Retry-After")
		}
		return oracle.NewError(providerName, apiErr.StatusCode, "", oracle.ParseRetryAfterHeader(retryAfter), err)
	}
	return oracle.NewError(providerName, 0, "", 0, err)
}
