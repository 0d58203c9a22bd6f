// Package pdf opens uploaded PDFs, reads their positioned text layer and rasterizes pages.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"

	"pointake/internal/port"
)

// Config holds the rasterizer settings.
type Config struct {
	PdftoppmPath string
	TempDir      string // empty means os.TempDir()
}

type reader struct {
	cfg    Config
	logger *zap.Logger
}

// NewReader returns a port.PDFReader that counts pages with pdfcpu, reads text with
// ledongthuc/pdf and renders pages with pdftoppm.
func NewReader(cfg Config, logger *zap.Logger) port.PDFReader {
	if cfg.PdftoppmPath == "" {
		cfg.PdftoppmPath = "pdftoppm"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &reader{cfg: cfg, logger: logger}
}

func (r *reader) Open(_ context.Context, data []byte) (port.PDFDocument, error) {
	if len(data) == 0 {
		return nil, errors.New("empty document")
	}
	pages, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("counting pages: %w", err)
	}
	text, err := openText(data)
	if err != nil {
		return nil, fmt.Errorf("reading text layer: %w", err)
	}
	return &document{
		data:   data,
		pages:  pages,
		text:   text,
		cfg:    r.cfg,
		logger: r.logger,
	}, nil
}

func openText(data []byte) (rd *lpdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			rd, err = nil, fmt.Errorf("malformed pdf: %v", p)
		}
	}()
	return lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

type document struct {
	data   []byte
	pages  int
	text   *lpdf.Reader
	cfg    Config
	logger *zap.Logger

	path string // source file for pdftoppm, written on first render
}

func (d *document) NumPages() int {
	return d.pages
}

func (d *document) PageText(_ context.Context, page int) (items []port.TextItem, err error) {
	if page < 1 || page > d.pages {
		return nil, fmt.Errorf("page %d out of range 1-%d", page, d.pages)
	}
	defer func() {
		if p := recover(); p != nil {
			items, err = nil, fmt.Errorf("page %d: malformed content: %v", page, p)
		}
	}()

	if page > d.text.NumPage() {
		return nil, nil
	}
	p := d.text.Page(page)
	if p.V.IsNull() {
		return nil, nil
	}
	rows, err := p.GetTextByRow()
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", page, err)
	}
	for _, row := range rows {
		for _, t := range row.Content {
			if t.S == "" {
				continue
			}
			items = append(items, port.TextItem{Text: t.S, X: t.X, Y: t.Y})
		}
	}
	return items, nil
}

// RenderPage rasterizes one page to JPEG. Each page is rendered into its own
// temporary directory, removed before returning.
func (d *document) RenderPage(ctx context.Context, page int, opts port.RenderOptions) ([]byte, error) {
	if page < 1 || page > d.pages {
		return nil, fmt.Errorf("page %d out of range 1-%d", page, d.pages)
	}
	if err := d.ensureSourceFile(); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(d.cfg.TempDir, "pointake-page-*")
	if err != nil {
		return nil, fmt.Errorf("creating render dir: %w", err)
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	pageStr := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, d.cfg.PdftoppmPath,
		"-jpeg",
		"-jpegopt", "quality="+strconv.Itoa(quality(opts.Quality)),
		"-r", strconv.Itoa(dpi(opts.Scale)),
		"-f", pageStr,
		"-l", pageStr,
		"-singlefile",
		d.path,
		prefix,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	// pdftoppm with -singlefile creates: <prefix>.jpg
	img, err := os.ReadFile(prefix + ".jpg")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	d.logger.Debug("pdf.document.RenderPage: rendered",
		zap.Int("page", page), zap.Int("bytes", len(img)))
	return img, nil
}

func (d *document) ensureSourceFile() error {
	if d.path != "" {
		return nil
	}
	f, err := os.CreateTemp(d.cfg.TempDir, "pointake-src-*.pdf")
	if err != nil {
		return fmt.Errorf("creating source file: %w", err)
	}
	if _, err := f.Write(d.data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("writing source file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("closing source file: %w", err)
	}
	d.path = f.Name()
	return nil
}

func (d *document) Close() error {
	if d.path == "" {
		return nil
	}
	err := os.Remove(d.path)
	d.path = ""
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func dpi(scale float64) int {
	if scale <= 0 {
		scale = 2.0
	}
	return int(72*scale + 0.5)
}

func quality(q int) int {
	if q <= 0 || q > 100 {
		return 80
	}
	return q
}
