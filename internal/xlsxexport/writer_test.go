package xlsxexport_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pointake/internal/domain"
	"pointake/internal/xlsxexport"
)

func TestWriter_WritesHeaderAndLines(t *testing.T) {
	w, err := xlsxexport.NewWriter()
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	lines := []domain.ExtractedLine{
		{
			SourceFile:          "a.pdf",
			CustomerName:        "Acme Corp",
			SoldTo:              "C100",
			ShipTo:              "SH-1",
			PurchaseOrderNumber: "PO-1",
			SalesOrg:            "SO-10",
			MaterialNumber:      "MAT-9",
			OrderQuantity:       domain.NumberQuantity(45.36),
			UnitOfMeasure:       "KG",
		},
		{
			SourceFile:    "b.pdf",
			CustomerName:  "Globex",
			OrderQuantity: domain.TextQuantity("1,200"),
			UnitOfMeasure: "EA",
		},
	}
	require.NoError(t, w.WriteLines(lines))
	assert.Equal(t, 2, w.Rows())

	var buf bytes.Buffer
	_, err = w.WriteTo(&buf)
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(xlsxexport.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, xlsxexport.Columns(), rows[0])
	assert.Equal(t, "a.pdf", rows[1][0])
	assert.Equal(t, "C100", rows[1][2])
	assert.Equal(t, "45.36", rows[1][8])
	assert.Equal(t, "1,200", rows[2][8])

	typ, err := f.GetCellType(xlsxexport.SheetName, "I2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"run 1", "run_1"},
		{"../etc/passwd", "etc_passwd"},
		{"PO  batch -- Q3", "PO_batch_--_Q3"},
		{"***", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, xlsxexport.SanitizeFilename(tt.in), tt.in)
	}
}

func TestBuildFilename(t *testing.T) {
	now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "batch_ab12_2025-03-04.xlsx", xlsxexport.BuildFilename("batch ab12", now))
	assert.Equal(t, "po_lines_2025-03-04.xlsx", xlsxexport.BuildFilename("", now))
}
