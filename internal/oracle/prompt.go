package oracle

// PurchaseOrderInstruction is the fixed extraction instruction sent with every document.
const PurchaseOrderInstruction = `You are reading a purchase order. Return every order line as its own flat JSON object inside one JSON array.

When the document repeats quantities or material numbers with different delivery dates, each of those rows is a separate line.

Every object carries all of these keys, repeating header values such as the customer and PO number on each line:
- customerName: the ordering customer.
- purchaseOrderNumber: the PO number. Drop any revision suffix that follows a space.
- requiredDeliveryDate: the requested delivery date in ISO 8601 form (YYYY-MM-DD).
- materialNumber: the item identifier. Prefer values labelled Item Number, Our Ref, Material Number, Part Number, Reference Number or SKU. Never take it from Vendor, Description, Invoice, Billing, Remit To, PO Box, Mailing Ref, Your material number or Your reference fields.
- orderQuantity: the ordered quantity.
- unitOfMeasure: the unit of the quantity as written.
- deliveryAddress: the ship-to or delivery address on one line with no line breaks.

Rules:
1. One object per line item. Never merge items.
2. No nested objects.
3. If there are 14 line items, return 14 objects.
4. Output JSON only.`

// LineItemsSchemaName names the extraction schema for providers that require one.
const LineItemsSchemaName = "purchase_order_lines"

var lineItemFields = []string{
	"customerName",
	"purchaseOrderNumber",
	"requiredDeliveryDate",
	"materialNumber",
	"orderQuantity",
	"unitOfMeasure",
	"deliveryAddress",
}

// LineItemsSchema is the output contract for extraction: an array of flat line objects.
// orderQuantity may come back as a number or as text such as "1,200".
func LineItemsSchema() map[string]any {
	props := map[string]any{}
	for _, f := range lineItemFields {
		props[f] = map[string]any{"type": "string"}
	}
	props["orderQuantity"] = map[string]any{"type": []any{"number", "string"}}
	props["requiredDeliveryDate"] = map[string]any{
		"type":        "string",
		"description": "ISO 8601 date, YYYY-MM-DD",
	}
	required := make([]any, len(lineItemFields))
	for i, f := range lineItemFields {
		required[i] = f
	}
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":       "object",
			"properties": props,
			"required":   required,
		},
	}
}

const soldToSchemaName = "sold_to_match"

func soldToSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"customerId": map[string]any{"type": []any{"string", "null"}},
			"reason":     map[string]any{"type": "string"},
		},
		"required": []any{"customerId"},
	}
}

const shipToSchemaName = "ship_to_match"

func shipToSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"shipToKey": map[string]any{"type": []any{"string", "null"}},
			"reason":    map[string]any{"type": "string"},
		},
		"required": []any{"shipToKey"},
	}
}

const soldToInstruction = `You match customer names from purchase orders to a customer master.
Given the customer name from the PO and a list of candidate customers, pick the candidate that is the same company.
Spelling, punctuation, legal suffixes and abbreviations may differ.
Answer with the customerId of the best match, or null if none of the candidates is a reasonable match.`

const shipToInstruction = `You match delivery addresses from purchase orders to a customer's known ship-to addresses.
Given the address from the PO and a map of ship-to key to address, pick the key whose address is the same place.
Formatting, abbreviations and ordering may differ.
Answer with the shipToKey of the best match, or null if none matches.`
