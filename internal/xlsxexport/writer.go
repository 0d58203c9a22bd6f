// Package xlsxexport renders result lines as an XLSX workbook.
package xlsxexport

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"pointake/internal/domain"
)

// SheetName is the name of the single worksheet in an export.
const SheetName = "Lines"

// columns defines the header row.
var columns = []string{
	"Source File",
	"Customer Name",
	"Sold-To",
	"Ship-To",
	"PO Number",
	"Sales Org",
	"Required Delivery Date",
	"Material Number",
	"Order Quantity",
	"Unit",
	"Delivery Address",
}

// Columns returns a copy of the header row.
func Columns() []string {
	return append([]string(nil), columns...)
}

// Writer accumulates lines into an in-memory workbook.
type Writer struct {
	f   *excelize.File
	row int
}

// NewWriter creates a workbook with the header row written and frozen.
func NewWriter() (*Writer, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	return &Writer{f: f, row: 2}, nil
}

// WriteLines appends one row per line. Numeric quantities are written as numbers.
func (w *Writer) WriteLines(lines []domain.ExtractedLine) error {
	for i := range lines {
		cell, _ := excelize.CoordinatesToCellName(1, w.row)
		row := lineToRow(&lines[i])
		if err := w.f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", w.row, err)
		}
		w.row++
	}
	return nil
}

// Rows returns the number of data rows written so far.
func (w *Writer) Rows() int {
	return w.row - 2
}

// WriteTo serializes the workbook to out.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	return w.f.WriteTo(out)
}

// Close releases the workbook.
func (w *Writer) Close() error {
	return w.f.Close()
}

func lineToRow(l *domain.ExtractedLine) []any {
	var qty any = l.OrderQuantity.String()
	if n, ok := l.OrderQuantity.Number(); ok {
		qty = n
	}
	return []any{
		l.SourceFile,
		l.CustomerName,
		l.SoldTo,
		l.ShipTo,
		l.PurchaseOrderNumber,
		l.SalesOrg,
		l.RequiredDeliveryDate,
		l.MaterialNumber,
		qty,
		l.UnitOfMeasure,
		l.DeliveryAddress,
	}
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename replaces characters outside [a-zA-Z0-9_-] with "_",
// collapses repeats and truncates to 100 characters.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns {sanitized prefix}_{YYYY-MM-DD}.xlsx for Content-Disposition.
func BuildFilename(prefix string, now time.Time) string {
	s := SanitizeFilename(prefix)
	if s == "" {
		s = "po_lines"
	}
	return fmt.Sprintf("%s_%s.xlsx", s, now.Format("2006-01-02"))
}
