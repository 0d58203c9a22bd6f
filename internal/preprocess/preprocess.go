// Package preprocess turns an uploaded PDF into oracle input: rendered page images or
// a layout-ordered text blob, capped by a word budget.
package preprocess

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"pointake/internal/domain"
	"pointake/internal/port"
)

// Config holds preprocessing limits.
type Config struct {
	WordBudget    int     // max words sent per document
	MinTextWords  int     // below this the text layer is treated as missing
	LineThreshold float64 // vertical distance that starts a new text line
	Render        port.RenderOptions
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		WordBudget:    950,
		MinTextWords:  10,
		LineThreshold: 5,
		Render:        port.RenderOptions{Scale: 2.0, Quality: 80},
	}
}

// Input is the canonical oracle input for one document: either images or text.
type Input struct {
	Mode   domain.ExtractionMode // mode actually used, after any fallback
	Images []domain.PageImage
	Text   string
}

// Empty reports whether there is nothing to send to the oracle.
func (in *Input) Empty() bool {
	return in == nil || (len(in.Images) == 0 && strings.TrimSpace(in.Text) == "")
}

// Parts converts the input into oracle content parts, text first then pages in order.
func (in *Input) Parts() []port.ContentPart {
	if in.Empty() {
		return nil
	}
	parts := make([]port.ContentPart, 0, len(in.Images)+1)
	if text := strings.TrimSpace(in.Text); text != "" {
		parts = append(parts, port.TextPart(text))
	}
	for _, img := range in.Images {
		parts = append(parts, port.ImagePart(img.MIMEType, img.Data))
	}
	return parts
}

// Preprocessor converts documents into Input.
type Preprocessor struct {
	reader port.PDFReader
	cfg    Config
	logger *zap.Logger
}

// New creates a Preprocessor. Zero config fields take their defaults.
func New(reader port.PDFReader, cfg Config, logger *zap.Logger) *Preprocessor {
	def := DefaultConfig()
	if cfg.WordBudget <= 0 {
		cfg.WordBudget = def.WordBudget
	}
	if cfg.MinTextWords <= 0 {
		cfg.MinTextWords = def.MinTextWords
	}
	if cfg.LineThreshold <= 0 {
		cfg.LineThreshold = def.LineThreshold
	}
	if cfg.Render.Scale <= 0 {
		cfg.Render.Scale = def.Render.Scale
	}
	if cfg.Render.Quality <= 0 {
		cfg.Render.Quality = def.Render.Quality
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Preprocessor{reader: reader, cfg: cfg, logger: logger}
}

// Preprocess converts doc according to mode. Any failure to open or read the
// document is returned as *domain.DocumentParseError.
func (p *Preprocessor) Preprocess(ctx context.Context, doc domain.Document, mode domain.ExtractionMode) (*Input, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidMode, mode)
	}

	pdfDoc, err := p.reader.Open(ctx, doc.Content)
	if err != nil {
		return nil, &domain.DocumentParseError{Document: doc.Name, Err: err}
	}
	defer pdfDoc.Close()

	if mode == domain.ModeText {
		text, words, err := p.assembleText(ctx, pdfDoc)
		if err != nil {
			return nil, &domain.DocumentParseError{Document: doc.Name, Err: err}
		}
		if words >= p.cfg.MinTextWords {
			p.logger.Debug("preprocess.Preprocessor.Preprocess: using text layer",
				zap.String("document", doc.Name), zap.Int("words", words))
			return &Input{Mode: domain.ModeText, Text: text}, nil
		}
		p.logger.Info("preprocess.Preprocessor.Preprocess: text layer too sparse, rasterizing",
			zap.String("document", doc.Name), zap.Int("words", words))
	}

	images, err := p.renderPages(ctx, pdfDoc)
	if err != nil {
		return nil, &domain.DocumentParseError{Document: doc.Name, Err: err}
	}
	p.logger.Debug("preprocess.Preprocessor.Preprocess: rendered pages",
		zap.String("document", doc.Name), zap.Int("pages", len(images)), zap.Int("total_pages", pdfDoc.NumPages()))
	return &Input{Mode: domain.ModeImage, Images: images}, nil
}

// renderPages rasterizes pages while the cumulative word count stays within budget.
// The first page is always rendered, even when it alone is over budget.
func (p *Preprocessor) renderPages(ctx context.Context, doc port.PDFDocument) ([]domain.PageImage, error) {
	var images []domain.PageImage
	total := 0
	for page := 1; page <= doc.NumPages(); page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		items, err := doc.PageText(ctx, page)
		if err != nil {
			return nil, err
		}
		words := countWords(joinItems(items, " "))
		over := total+words > p.cfg.WordBudget
		if over && page > 1 {
			break
		}
		total += words

		data, err := doc.RenderPage(ctx, page, p.cfg.Render)
		if err != nil {
			return nil, fmt.Errorf("rendering page %d: %w", page, err)
		}
		images = append(images, domain.PageImage{Page: page, MIMEType: "image/jpeg", Data: data})
		if over {
			break
		}
	}
	return images, nil
}

// assembleText builds the layout-ordered text of the document within the word budget.
func (p *Preprocessor) assembleText(ctx context.Context, doc port.PDFDocument) (string, int, error) {
	w := &budgetWriter{limit: p.cfg.WordBudget}
	for page := 1; page <= doc.NumPages() && !w.full; page++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		items, err := doc.PageText(ctx, page)
		if err != nil {
			return "", 0, err
		}
		if page > 1 && !w.writeWhole(pageSeparator(page)) {
			break
		}
		for _, line := range layoutLines(items, p.cfg.LineThreshold) {
			if !w.write(line) {
				break
			}
		}
	}
	return strings.TrimSpace(w.b.String()), w.words, nil
}

func pageSeparator(page int) string {
	return fmt.Sprintf("--- Page %d ---", page)
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

func joinItems(items []port.TextItem, sep string) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, it.Text)
	}
	return strings.Join(parts, sep)
}
