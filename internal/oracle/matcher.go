package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"pointake/internal/domain"
	"pointake/internal/port"
)

// Matcher asks the oracle to disambiguate directory candidates.
type Matcher struct {
	gen    port.Generator
	soldTo *jsonschema.Schema
	shipTo *jsonschema.Schema
	logger *zap.Logger
}

// NewMatcher creates a Matcher on top of gen.
func NewMatcher(gen port.Generator, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		gen:    gen,
		soldTo: mustCompileSchema(soldToSchemaName, soldToSchema()),
		shipTo: mustCompileSchema(shipToSchemaName, shipToSchema()),
		logger: logger,
	}
}

type candidateView struct {
	CustomerID string   `json:"customerId"`
	Names      []string `json:"names"`
}

// PickCustomer returns the customer_id of the candidate that best matches name,
// or "" when the oracle finds no reasonable match.
func (m *Matcher) PickCustomer(ctx context.Context, name string, candidates []domain.Customer) (string, error) {
	if len(candidates) == 0 {
		return "", nil
	}
	views := make([]candidateView, len(candidates))
	for i := range candidates {
		views[i] = candidateView{CustomerID: candidates[i].CustomerID, Names: candidates[i].CustomerNames}
	}
	payload, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal candidates: %w", err)
	}
	prompt := fmt.Sprintf("Customer name on the purchase order: %q\n\nCandidate customers:\n%s", name, payload)

	var out struct {
		CustomerID *string `json:"customerId"`
		Reason     string  `json:"reason"`
	}
	if err := m.ask(ctx, soldToInstruction, prompt, soldToSchemaName, soldToSchema(), m.soldTo, &out); err != nil {
		return "", fmt.Errorf("pick customer: %w", err)
	}
	id := answer(out.CustomerID)
	m.logger.Debug("oracle.Matcher.PickCustomer: decided",
		zap.String("customer", name), zap.Int("candidates", len(candidates)),
		zap.String("customer_id", id), zap.String("reason", out.Reason))
	return id, nil
}

// PickShipTo returns the ship-to key whose address best matches address, or "".
func (m *Matcher) PickShipTo(ctx context.Context, address string, shipTo map[string]string) (string, error) {
	if len(shipTo) == 0 {
		return "", nil
	}
	payload, err := json.MarshalIndent(shipTo, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal ship-to map: %w", err)
	}
	prompt := fmt.Sprintf("Delivery address on the purchase order: %q\n\nShip-to addresses (key: address):\n%s", address, payload)

	var out struct {
		ShipToKey *string `json:"shipToKey"`
		Reason    string  `json:"reason"`
	}
	if err := m.ask(ctx, shipToInstruction, prompt, shipToSchemaName, shipToSchema(), m.shipTo, &out); err != nil {
		return "", fmt.Errorf("pick ship-to: %w", err)
	}
	key := answer(out.ShipToKey)
	m.logger.Debug("oracle.Matcher.PickShipTo: decided",
		zap.String("address", address), zap.Int("options", len(shipTo)),
		zap.String("ship_to", key), zap.String("reason", out.Reason))
	return key, nil
}

func (m *Matcher) ask(ctx context.Context, instruction, prompt, schemaName string, schema map[string]any, compiled *jsonschema.Schema, out any) error {
	resp, err := m.gen.Generate(ctx, port.GenerateRequest{
		Instruction: instruction,
		Parts:       []port.ContentPart{port.TextPart(prompt)},
		SchemaName:  schemaName,
		Schema:      schema,
		Temperature: 0,
	})
	if err != nil {
		return err
	}
	text := stripCodeFences(resp.Text)
	if text == "" {
		return nil
	}
	if err := decodeValidated(compiled, text, out); err != nil {
		return InvalidOutput(resp.Model, err)
	}
	return nil
}

func answer(v *string) string {
	if v == nil {
		return ""
	}
	s := strings.TrimSpace(*v)
	switch strings.ToLower(s) {
	case "null", "none", "n/a":
		return ""
	}
	return s
}
