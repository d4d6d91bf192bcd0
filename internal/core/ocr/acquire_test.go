package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseph-ayodele/invoice-reader/constants"
	"github.com/joseph-ayodele/invoice-reader/internal/common"
	"github.com/joseph-ayodele/invoice-reader/internal/entity"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeDoc struct {
	pages  []string
	closed bool
}

func (d *fakeDoc) NumPage() int { return len(d.pages) }
func (d *fakeDoc) PageText(n int) (string, error) {
	return d.pages[n-1], nil
}
func (d *fakeDoc) Close() error { d.closed = true; return nil }

type fakeReader struct {
	doc *fakeDoc
	err error
}

func (r *fakeReader) Open(string) (PDFDocument, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.doc, nil
}

type fakeInspector struct {
	pages int
	err   error
}

func (fakeInspector) Validate(string) error { return nil }
func (i fakeInspector) PageCount(string) (int, error) { return i.pages, i.err }

type fakeRenderer struct {
	rendered []int
	cleaned  int
	err      error
}

func (r *fakeRenderer) RenderPage(_ context.Context, _ string, page, dpi int) (string, func(), error) {
	if dpi != 300 {
		return "", nil, errors.New("unexpected dpi")
	}
	r.rendered = append(r.rendered, page)
	return "page.png", func() { r.cleaned++ }, r.err
}

type fakeEngine struct {
	out   string
	err   error
	calls []string
}

func (e *fakeEngine) Recognize(_ context.Context, path string) (string, error) {
	e.calls = append(e.calls, path)
	return e.out, e.err
}

func pdfFile(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "invoice.pdf")
	if err := os.WriteFile(p, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func newTestExtractor(opts ...Option) *Extractor {
	cfg := common.DefaultConfig().OCR
	return NewExtractor(cfg, quietLogger(), append([]Option{WithInspector(fakeInspector{})}, opts...)...)
}

func TestAcquireMixedPDF(t *testing.T) {
	doc := &fakeDoc{pages: []string{"  Invoice #100 ", ""}}
	renderer := &fakeRenderer{}
	engine := &fakeEngine{out: "Total:\n  1O.5O  EUR\n"}
	e := newTestExtractor(WithPDFReader(&fakeReader{doc: doc}), WithRenderer(renderer), WithEngine(engine))

	tr, err := e.Acquire(context.Background(), entity.Document{Path: pdfFile(t), MimeType: "application/pdf"})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	want := "Invoice #100\nTotal: 10.50 EUR"
	if tr.Text != want {
		t.Fatalf("text = %q, want %q", tr.Text, want)
	}
	if tr.Pages != 2 || tr.OCRPages != 1 || tr.Method != constants.MethodMixed || tr.SourceType != constants.FormatPDF {
		t.Fatalf("transcript meta = %+v", tr)
	}
	if len(renderer.rendered) != 1 || renderer.rendered[0] != 2 {
		t.Fatalf("rendered pages = %v, want [2]", renderer.rendered)
	}
	if renderer.cleaned != 1 {
		t.Fatalf("render cleanup called %d times", renderer.cleaned)
	}
	if !doc.closed {
		t.Fatal("pdf not closed")
	}
}

func TestAcquireShortPageFallsBackToOCR(t *testing.T) {
	doc := &fakeDoc{pages: []string{"p. 1"}}
	engine := &fakeEngine{out: "scanned page"}
	e := newTestExtractor(WithPDFReader(&fakeReader{doc: doc}), WithRenderer(&fakeRenderer{}), WithEngine(engine))

	tr, err := e.Acquire(context.Background(), entity.Document{Path: pdfFile(t), MimeType: "application/pdf"})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if tr.Text != "scanned page" || tr.Method != constants.MethodOCR {
		t.Fatalf("transcript = %+v", tr)
	}
}

func TestAcquireUnreadableTextLayerUsesPageCount(t *testing.T) {
	engine := &fakeEngine{out: "ocr"}
	renderer := &fakeRenderer{}
	e := newTestExtractor(
		WithPDFReader(&fakeReader{err: errors.New("bad xref")}),
		WithInspector(fakeInspector{pages: 3}),
		WithRenderer(renderer),
		WithEngine(engine),
	)
	tr, err := e.Acquire(context.Background(), entity.Document{Path: pdfFile(t), MimeType: "application/pdf"})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if tr.Text != "ocr\nocr\nocr" || len(renderer.rendered) != 3 {
		t.Fatalf("text = %q rendered = %v", tr.Text, renderer.rendered)
	}
}

func TestAcquireUnreadablePDF(t *testing.T) {
	e := newTestExtractor(
		WithPDFReader(&fakeReader{err: errors.New("bad xref")}),
		WithInspector(fakeInspector{err: errors.New("not a pdf")}),
	)
	_, err := e.Acquire(context.Background(), entity.Document{Path: pdfFile(t), MimeType: "application/pdf"})
	if !errors.Is(err, common.ErrAcquisition) {
		t.Fatalf("err = %v, want acquisition", err)
	}
}

func TestAcquireOCRFailureFailsDocument(t *testing.T) {
	doc := &fakeDoc{pages: []string{"Invoice #100 with text", ""}}
	renderer := &fakeRenderer{}
	e := newTestExtractor(
		WithPDFReader(&fakeReader{doc: doc}),
		WithRenderer(renderer),
		WithEngine(&fakeEngine{err: io.ErrUnexpectedEOF}),
	)
	_, err := e.Acquire(context.Background(), entity.Document{Path: pdfFile(t), MimeType: "application/pdf"})
	if !errors.Is(err, common.ErrAcquisition) || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err = %v", err)
	}
	if renderer.cleaned != 1 {
		t.Fatal("rendered page not cleaned up on failure")
	}
}

func TestAcquireMissingFile(t *testing.T) {
	e := newTestExtractor()
	_, err := e.Acquire(context.Background(), entity.Document{Path: filepath.Join(t.TempDir(), "gone.pdf"), MimeType: "application/pdf"})
	if !errors.Is(err, common.ErrAcquisition) {
		t.Fatalf("err = %v", err)
	}
}

func TestAcquireUnsupported(t *testing.T) {
	e := newTestExtractor()
	for _, mime := range []string{"text/plain", "application/zip", ""} {
		_, err := e.Acquire(context.Background(), entity.Document{Path: "x", MimeType: mime})
		if !errors.Is(err, common.ErrUnsupportedFormat) {
			t.Fatalf("mime %q: err = %v", mime, err)
		}
	}
}

func writeTestPNG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 24, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 24; x++ {
			img.Set(x, y, color.White)
		}
	}
	p := filepath.Join(dir, "scan.png")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestAcquireImage(t *testing.T) {
	dir := t.TempDir()
	cfg := common.DefaultConfig().OCR
	cfg.TempDir = dir
	engine := &fakeEngine{out: "FAKTURA  č.\n2O24OO1"}
	e := NewExtractor(cfg, quietLogger(), WithEngine(engine))

	tr, err := e.Acquire(context.Background(), entity.Document{Path: writeTestPNG(t, dir), MimeType: "image/png"})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if tr.Text != "FAKTURA č. 2024001" {
		t.Fatalf("text = %q", tr.Text)
	}
	if tr.SourceType != constants.FormatImage || tr.Method != constants.MethodOCR {
		t.Fatalf("meta = %+v", tr)
	}
	// preprocessed temp file is gone
	matches, _ := filepath.Glob(filepath.Join(dir, "ir-pre-*.png"))
	if len(matches) != 0 {
		t.Fatalf("temp files left behind: %v", matches)
	}
	if len(engine.calls) != 1 || !strings.HasPrefix(filepath.Base(engine.calls[0]), "ir-pre-") {
		t.Fatalf("engine saw %v", engine.calls)
	}
}

func TestAcquireCorruptImage(t *testing.T) {
	p := filepath.Join(t.TempDir(), "broken.jpg")
	if err := os.WriteFile(p, []byte("not an image"), 0o600); err != nil {
		t.Fatal(err)
	}
	e := newTestExtractor(WithEngine(&fakeEngine{}))
	_, err := e.Acquire(context.Background(), entity.Document{Path: p, MimeType: "image/jpeg"})
	if !errors.Is(err, common.ErrAcquisition) {
		t.Fatalf("err = %v", err)
	}
}
