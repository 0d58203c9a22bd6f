package oracle_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pointake/internal/domain"
	"pointake/internal/oracle"
	"pointake/internal/port"
	"pointake/mocks"
)

const twoLines = `[
  {"customerName":"Acme Corp","purchaseOrderNumber":"PO-1001 Rev 2","requiredDeliveryDate":"2025-03-01",
   "materialNumber":"MAT-1","orderQuantity":2000,"unitOfMeasure":"LBS","deliveryAddress":"12 Dock Rd\nPort City"},
  {"customerName":" Acme Corp ","purchaseOrderNumber":"PO-1001","requiredDeliveryDate":"2025-03-01",
   "materialNumber":"MAT-2","orderQuantity":"1,200","unitOfMeasure":"KG","deliveryAddress":""}
]`

func TestExtractor_DecodesLines(t *testing.T) {
	gen := new(mocks.MockGenerator)
	usage := &domain.TokenUsage{PromptTokens: 100, ResponseTokens: 20, TotalTokens: 120}
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(req port.GenerateRequest) bool {
		return req.SchemaName == oracle.LineItemsSchemaName && req.Temperature == 0 && len(req.Parts) == 1
	})).Return(&port.GenerateResponse{Text: twoLines, Model: "gemini-2.5-flash", Usage: usage}, nil)

	res, err := oracle.NewExtractor(gen, nil).Extract(context.Background(), []port.ContentPart{port.TextPart("po text")})

	require.NoError(t, err)
	require.Len(t, res.Lines, 2)
	assert.Same(t, usage, res.Usage)
	assert.Equal(t, "gemini-2.5-flash", res.Model)

	first := res.Lines[0]
	assert.Equal(t, "PO-1001", first.PurchaseOrderNumber)
	assert.Equal(t, "12 Dock Rd Port City", first.DeliveryAddress)
	n, ok := first.OrderQuantity.Number()
	assert.True(t, ok)
	assert.Equal(t, 2000.0, n)

	second := res.Lines[1]
	assert.Equal(t, "Acme Corp", second.CustomerName)
	s, ok := second.OrderQuantity.Text()
	assert.True(t, ok)
	assert.Equal(t, "1,200", s)
}

func TestExtractor_StripsCodeFences(t *testing.T) {
	gen := new(mocks.MockGenerator)
	fenced := "```json\n" + twoLines + "\n```"
	gen.On("Generate", mock.Anything, mock.Anything).Return(&port.GenerateResponse{Text: fenced}, nil)

	res, err := oracle.NewExtractor(gen, nil).Extract(context.Background(), []port.ContentPart{port.TextPart("x")})

	require.NoError(t, err)
	assert.Len(t, res.Lines, 2)
}

func TestExtractor_EmptyOutputYieldsNoLines(t *testing.T) {
	gen := new(mocks.MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(&port.GenerateResponse{Text: "  "}, nil)

	res, err := oracle.NewExtractor(gen, nil).Extract(context.Background(), []port.ContentPart{port.TextPart("x")})

	require.NoError(t, err)
	assert.Empty(t, res.Lines)
}

func TestExtractor_NoPartsSkipsCall(t *testing.T) {
	gen := new(mocks.MockGenerator)

	res, err := oracle.NewExtractor(gen, nil).Extract(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, res.Lines)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestExtractor_InvalidOutput(t *testing.T) {
	tests := map[string]string{
		"not json":        "I could not find any line items.",
		"object not list": `{"customerName":"Acme"}`,
		"missing field":   `[{"customerName":"Acme"}]`,
		"bad quantity":    `[{"customerName":"A","purchaseOrderNumber":"1","requiredDeliveryDate":"","materialNumber":"M","orderQuantity":true,"unitOfMeasure":"KG","deliveryAddress":""}]`,
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			gen := new(mocks.MockGenerator)
			gen.On("Generate", mock.Anything, mock.Anything).Return(&port.GenerateResponse{Text: text, Model: "m"}, nil)

			_, err := oracle.NewExtractor(gen, nil).Extract(context.Background(), []port.ContentPart{port.TextPart("x")})

			require.Error(t, err)
			var oe *oracle.Error
			require.ErrorAs(t, err, &oe)
			assert.Equal(t, oracle.CodeInvalidOutput, oe.Code)
			assert.False(t, oracle.IsTransient(err))
		})
	}
}

func TestExtractor_GeneratorErrorPropagates(t *testing.T) {
	gen := new(mocks.MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(nil, rateLimited())

	_, err := oracle.NewExtractor(gen, nil).Extract(context.Background(), []port.ContentPart{port.TextPart("x")})

	require.Error(t, err)
	assert.True(t, oracle.IsTransient(err))
	assert.False(t, errors.Is(err, domain.ErrDocumentParse))
}
