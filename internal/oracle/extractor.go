package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"pointake/internal/domain"
	"pointake/internal/port"
)

// ExtractionResult is the outcome of one extraction call.
type ExtractionResult struct {
	Lines []domain.ExtractedLine
	Usage *domain.TokenUsage
	Model string
}

// Extractor turns document content into purchase order lines through a Generator.
type Extractor struct {
	gen    port.Generator
	schema *jsonschema.Schema
	logger *zap.Logger
}

// NewExtractor creates an Extractor on top of gen, which is expected to carry the
// retry policy.
func NewExtractor(gen port.Generator, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		gen:    gen,
		schema: mustCompileSchema(LineItemsSchemaName, LineItemsSchema()),
		logger: logger,
	}
}

type rawLine struct {
	CustomerName         string          `json:"customerName"`
	PurchaseOrderNumber  string          `json:"purchaseOrderNumber"`
	RequiredDeliveryDate string          `json:"requiredDeliveryDate"`
	MaterialNumber       string          `json:"materialNumber"`
	OrderQuantity        domain.Quantity `json:"orderQuantity"`
	UnitOfMeasure        string          `json:"unitOfMeasure"`
	DeliveryAddress      string          `json:"deliveryAddress"`
}

func (r rawLine) toLine() domain.ExtractedLine {
	return domain.ExtractedLine{
		CustomerName:         strings.TrimSpace(r.CustomerName),
		PurchaseOrderNumber:  domain.StripRevision(r.PurchaseOrderNumber),
		RequiredDeliveryDate: strings.TrimSpace(r.RequiredDeliveryDate),
		MaterialNumber:       strings.TrimSpace(r.MaterialNumber),
		OrderQuantity:        r.OrderQuantity,
		UnitOfMeasure:        strings.TrimSpace(r.UnitOfMeasure),
		DeliveryAddress:      domain.SingleLine(r.DeliveryAddress),
	}
}

// Extract sends parts with the purchase order instruction and decodes the lines.
// Empty model output yields no lines and no error.
func (e *Extractor) Extract(ctx context.Context, parts []port.ContentPart) (*ExtractionResult, error) {
	if len(parts) == 0 {
		return &ExtractionResult{}, nil
	}

	resp, err := e.gen.Generate(ctx, port.GenerateRequest{
		Instruction: PurchaseOrderInstruction,
		Parts:       parts,
		SchemaName:  LineItemsSchemaName,
		Schema:      LineItemsSchema(),
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("extract lines: %w", err)
	}

	result := &ExtractionResult{Usage: resp.Usage, Model: resp.Model}
	text := stripCodeFences(resp.Text)
	if text == "" {
		e.logger.Info("oracle.Extractor.Extract: empty model output", zap.String("model", resp.Model))
		return result, nil
	}

	var raw []rawLine
	if err := decodeValidated(e.schema, text, &raw); err != nil {
		return nil, InvalidOutput(resp.Model, err)
	}
	result.Lines = make([]domain.ExtractedLine, 0, len(raw))
	for _, r := range raw {
		result.Lines = append(result.Lines, r.toLine())
	}

	e.logger.Debug("oracle.Extractor.Extract: decoded lines",
		zap.String("model", resp.Model), zap.Int("lines", len(result.Lines)))
	return result, nil
}
