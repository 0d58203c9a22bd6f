package port

import "context"

// TextItem is a run of text on a page at user-space coordinates (origin bottom-left).
type TextItem struct {
	Text string
	X    float64
	Y    float64
}

// RenderOptions controls page rasterization.
type RenderOptions struct {
	Scale   float64 // relative to 72 DPI
	Quality int     // JPEG quality, 1-100
}

// PDFDocument is an opened PDF. Pages are numbered from 1.
type PDFDocument interface {
	NumPages() int
	PageText(ctx context.Context, page int) ([]TextItem, error)
	RenderPage(ctx context.Context, page int, opts RenderOptions) ([]byte, error)
	Close() error
}

// PDFReader opens PDF documents from raw bytes.
type PDFReader interface {
	Open(ctx context.Context, data []byte) (PDFDocument, error)
}
