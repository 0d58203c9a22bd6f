package preprocess_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pointake/internal/domain"
	"pointake/internal/port"
	"pointake/internal/preprocess"
)

type fakePDF struct {
	pages    [][]port.TextItem
	rendered []int
	closed   bool
}

func (f *fakePDF) NumPages() int { return len(f.pages) }

func (f *fakePDF) PageText(_ context.Context, page int) ([]port.TextItem, error) {
	return f.pages[page-1], nil
}

func (f *fakePDF) RenderPage(_ context.Context, page int, _ port.RenderOptions) ([]byte, error) {
	f.rendered = append(f.rendered, page)
	return []byte(fmt.Sprintf("jpeg-%d", page)), nil
}

func (f *fakePDF) Close() error {
	f.closed = true
	return nil
}

type fakeReader struct {
	doc *fakePDF
	err error
}

func (r *fakeReader) Open(context.Context, []byte) (port.PDFDocument, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.doc, nil
}

// wordsPage returns a page whose text is n words, ten per line, tagged with prefix.
func wordsPage(prefix string, n int) []port.TextItem {
	var items []port.TextItem
	y := 800.0
	for i := 0; i < n; i += 10 {
		var words []string
		for j := i; j < i+10 && j < n; j++ {
			words = append(words, fmt.Sprintf("%s%d", prefix, j))
		}
		items = append(items, port.TextItem{Text: strings.Join(words, " "), X: 72, Y: y})
		y -= 12
	}
	return items
}

func newPreprocessor(doc *fakePDF) *preprocess.Preprocessor {
	return preprocess.New(&fakeReader{doc: doc}, preprocess.DefaultConfig(), nil)
}

func TestPreprocess_TextModeTruncatesToBudget(t *testing.T) {
	doc := &fakePDF{pages: [][]port.TextItem{wordsPage("a", 400), wordsPage("b", 400), wordsPage("c", 400)}}

	in, err := newPreprocessor(doc).Preprocess(context.Background(), domain.Document{Name: "po.pdf"}, domain.ModeText)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeText, in.Mode)
	assert.Empty(t, in.Images)
	assert.LessOrEqual(t, len(strings.Fields(in.Text)), 950)
	assert.True(t, strings.HasPrefix(in.Text, "a0 a1"))
	assert.Contains(t, in.Text, "--- Page 2 ---")
	assert.Contains(t, in.Text, "b399")
	assert.Contains(t, in.Text, "--- Page 3 ---")
	assert.Contains(t, in.Text, "c0")
	assert.NotContains(t, in.Text, "c399")
	assert.True(t, doc.closed)
}

func TestPreprocess_TextModeKeepsFirstPageWhenOverBudget(t *testing.T) {
	doc := &fakePDF{pages: [][]port.TextItem{wordsPage("a", 1200), wordsPage("b", 50)}}

	in, err := newPreprocessor(doc).Preprocess(context.Background(), domain.Document{Name: "po.pdf"}, domain.ModeText)
	require.NoError(t, err)

	words := strings.Fields(in.Text)
	assert.Len(t, words, 950)
	assert.Equal(t, "a0", words[0])
	assert.Equal(t, "a949", words[949])
	assert.NotContains(t, in.Text, "Page 2")
}

func TestPreprocess_TextModeFallsBackToImages(t *testing.T) {
	doc := &fakePDF{pages: [][]port.TextItem{{{Text: "scanned", X: 10, Y: 700}}, nil}}

	in, err := newPreprocessor(doc).Preprocess(context.Background(), domain.Document{Name: "scan.pdf"}, domain.ModeText)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeImage, in.Mode)
	assert.Empty(t, in.Text)
	require.Len(t, in.Images, 2)
	assert.Equal(t, "image/jpeg", in.Images[0].MIMEType)
	assert.Equal(t, []int{1, 2}, doc.rendered)
}

func TestPreprocess_ImageModeStopsAtBudget(t *testing.T) {
	doc := &fakePDF{pages: [][]port.TextItem{wordsPage("a", 400), wordsPage("b", 400), wordsPage("c", 400)}}

	in, err := newPreprocessor(doc).Preprocess(context.Background(), domain.Document{Name: "po.pdf"}, domain.ModeImage)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeImage, in.Mode)
	assert.Len(t, in.Images, 2)
	assert.Equal(t, []int{1, 2}, doc.rendered)
}

func TestPreprocess_ImageModeAlwaysRendersFirstPage(t *testing.T) {
	doc := &fakePDF{pages: [][]port.TextItem{wordsPage("a", 2000), wordsPage("b", 10)}}

	in, err := newPreprocessor(doc).Preprocess(context.Background(), domain.Document{Name: "po.pdf"}, domain.ModeImage)
	require.NoError(t, err)

	require.Len(t, in.Images, 1)
	assert.Equal(t, 1, in.Images[0].Page)
}

func TestPreprocess_OpenFailureIsDocumentParseError(t *testing.T) {
	p := preprocess.New(&fakeReader{err: errors.New("no xref")}, preprocess.DefaultConfig(), nil)

	_, err := p.Preprocess(context.Background(), domain.Document{Name: "bad.pdf"}, domain.ModeImage)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDocumentParse)
	var parseErr *domain.DocumentParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "bad.pdf", parseErr.Document)
}

func TestPreprocess_RejectsUnknownMode(t *testing.T) {
	_, err := newPreprocessor(&fakePDF{}).Preprocess(context.Background(), domain.Document{}, "ocr")

	assert.ErrorIs(t, err, domain.ErrInvalidMode)
}

func TestInput_Empty(t *testing.T) {
	var in *preprocess.Input
	assert.True(t, in.Empty())
	assert.True(t, (&preprocess.Input{Text: "  "}).Empty())
	assert.False(t, (&preprocess.Input{Text: "x"}).Empty())
}

func TestInput_Parts(t *testing.T) {
	var empty *preprocess.Input
	assert.Nil(t, empty.Parts())

	text := &preprocess.Input{Mode: domain.ModeText, Text: " PO 1001 "}
	parts := text.Parts()
	require.Len(t, parts, 1)
	assert.Equal(t, "PO 1001", parts[0].Text)
	assert.False(t, parts[0].IsImage())

	images := &preprocess.Input{Mode: domain.ModeImage, Images: []domain.PageImage{
		{Page: 1, MIMEType: "image/jpeg", Data: []byte{1}},
		{Page: 2, MIMEType: "image/jpeg", Data: []byte{2}},
	}}
	parts = images.Parts()
	require.Len(t, parts, 2)
	assert.Equal(t, []byte{1}, parts[0].Data)
	assert.Equal(t, []byte{2}, parts[1].Data)
}
