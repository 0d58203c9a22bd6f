// Package claude implements port.Generator on Anthropic's Messages API.
package claude

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"pointake/internal/config"
	"pointake/internal/domain"
	"pointake/internal/oracle"
	"pointake/internal/port"
)

const (
	providerName = "claude"
	defaultModel = "claude-sonnet-4-5"
	maxTokens    = 8192
)

func init() {
	oracle.RegisterProvider(providerName, func(cfg *config.OracleProviderConfig, model string) (port.Generator, error) {
		return NewGenerator(cfg, model), nil
	})
}

// Generator calls the Messages API. The schema travels in the system prompt and
// the caller validates the output.
type Generator struct {
	messages anthropic.MessageService
	model    string
}

// NewGenerator creates a Claude generator.
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
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}
	return &Generator{messages: anthropic.NewMessageService(opts...), model: model}
}

func (g *Generator) Generate(ctx context.Context, req port.GenerateRequest) (*port.GenerateResponse, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.IsImage() {
			blocks = append(blocks, anthropic.NewImageBlock(anthropic.Base64ImageSourceParam{
				Data:      base64.StdEncoding.EncodeToString(p.Data),
				MediaType: anthropic.Base64ImageSourceMediaType(p.MIMEType),
			}))
			continue
		}
		blocks = append(blocks, anthropic.NewTextBlock(p.Text))
	}

	system, err := systemPrompt(req)
	if err != nil {
		return nil, err
	}

	msg, err := g.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   maxTokens,
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
		Temperature: anthropic.Float(req.Temperature),
	})
	if err != nil {
		return nil, mapError(err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return &port.GenerateResponse{
		Text:  text.String(),
		Model: string(msg.Model),
		Usage: &domain.TokenUsage{
			PromptTokens:   msg.Usage.InputTokens,
			ResponseTokens: msg.Usage.OutputTokens,
			TotalTokens:    msg.Usage.InputTokens + msg.Usage.OutputTokens,
		},
	}, nil
}

func systemPrompt(req port.GenerateRequest) (string, error) {
	if req.Schema == nil {
		return req.Instruction, nil
	}
	schema, err := json.Marshal(req.Schema)
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}
	return req.Instruction + "\n\nRespond with JSON only, no prose and no code fences. The JSON must satisfy this schema:\n" + string(schema), nil
}

func mapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		var retryAfter string
		if apiErr.Response != nil {
			retryAfter = apiErr.Response.Header.Get("Retry-After")
		}
		return oracle.NewError(providerName, apiErr.StatusCode, "", oracle.ParseRetryAfterHeader(retryAfter), err)
	}
	return oracle.NewError(providerName, 0, "", 0, err)
}
