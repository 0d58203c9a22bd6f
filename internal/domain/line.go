package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ExtractedLine is one purchase order line item. Values are treated as immutable:
// each pipeline stage returns an updated copy through the With* methods.
type ExtractedLine struct {
	SourceFile           string   `json:"sourceFile,omitempty"`
	SourceURL            string   `json:"sourceUrl,omitempty"`
	CustomerName         string   `json:"customerName"`
	SoldTo               string   `json:"soldTo"`
	ShipTo               string   `json:"shipTo"`
	PurchaseOrderNumber  string   `json:"purchaseOrderNumber"`
	SalesOrg             string   `json:"salesOrg"`
	RequiredDeliveryDate string   `json:"requiredDeliveryDate"`
	MaterialNumber       string   `json:"materialNumber"`
	OrderQuantity        Quantity `json:"orderQuantity"`
	UnitOfMeasure        string   `json:"unitOfMeasure"`
	DeliveryAddress      string   `json:"deliveryAddress,omitempty"`
}

// Resolution holds the directory fields derived for a line.
type Resolution struct {
	SoldTo   string `json:"soldTo"`
	ShipTo   string `json:"shipTo"`
	SalesOrg string `json:"salesOrg"`
}

// WithQuantity returns a copy of l carrying quantity q and unit.
func (l ExtractedLine) WithQuantity(q Quantity, unit string) ExtractedLine {
	l.OrderQuantity = q
	l.UnitOfMeasure = unit
	return l
}

// WithResolution returns a copy of l carrying r.
func (l ExtractedLine) WithResolution(r Resolution) ExtractedLine {
	l.SoldTo = r.SoldTo
	l.ShipTo = r.ShipTo
	l.SalesOrg = r.SalesOrg
	return l
}

// WithSource returns a copy of l stamped with the originating document.
func (l ExtractedLine) WithSource(file, url string) ExtractedLine {
	l.SourceFile = file
	l.SourceURL = url
	return l
}

// ForStorage drops the fields that are not kept in saved results.
func (l ExtractedLine) ForStorage() ExtractedLine {
	l.DeliveryAddress = ""
	l.SourceURL = ""
	return l
}

// StripRevision drops a trailing revision suffix: everything from the first space on.
func StripRevision(po string) string {
	po = strings.TrimSpace(po)
	if i := strings.IndexByte(po, ' '); i >= 0 {
		return po[:i]
	}
	return po
}

// SingleLine collapses line breaks and runs of whitespace into single spaces.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Quantity is an order quantity as the oracle reported it: a JSON number or a string.
type Quantity struct {
	num   float64
	text  string
	isNum bool
}

// NumberQuantity returns a numeric quantity.
func NumberQuantity(f float64) Quantity {
	return Quantity{num: f, isNum: true}
}

// TextQuantity returns a quantity kept in its textual form.
func TextQuantity(s string) Quantity {
	return Quantity{text: s}
}

// Number returns the numeric value when the quantity was numeric.
func (q Quantity) Number() (float64, bool) {
	return q.num, q.isNum
}

// Text returns the raw text when the quantity was a string.
func (q Quantity) Text() (string, bool) {
	return q.text, !q.isNum
}

func (q Quantity) String() string {
	if q.isNum {
		return strconv.FormatFloat(q.num, 'f', -1, 64)
	}
	return q.text
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.isNum {
		return []byte(strconv.FormatFloat(q.num, 'f', -1, 64)), nil
	}
	return json.Marshal(q.text)
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*q = Quantity{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = TextQuantity(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("order quantity %s: %w", data, err)
	}
	*q = NumberQuantity(f)
	return nil
}
