// Package ocr acquires a plain-text transcript from a PDF or image document,
// falling back to OCR per page when a PDF carries no usable embedded text.
package ocr

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/invoice-reader/constants"
	"github.com/joseph-ayodele/invoice-reader/internal/common"
	"github.com/joseph-ayodele/invoice-reader/internal/core/text"
	"github.com/joseph-ayodele/invoice-reader/internal/entity"
)

// Extractor implements text acquisition. Collaborators default to the real
// tools and may be swapped with options.
type Extractor struct {
	cfg       common.OCRConfig
	runner    Runner
	reader    PDFReader
	inspector PDFInspector
	renderer  PageRenderer
	engine    OCREngine
	logger    *slog.Logger
}

type Option func(*Extractor)

func WithRunner(r Runner) Option { return func(e *Extractor) { e.runner = r } }
func WithPDFReader(r PDFReader) Option { return func(e *Extractor) { e.reader = r } }
func WithInspector(i PDFInspector) Option { return func(e *Extractor) { e.inspector = i } }
func WithRenderer(r PageRenderer) Option { return func(e *Extractor) { e.renderer = r } }
func WithEngine(engine OCREngine) Option { return func(e *Extractor) { e.engine = engine } }

func NewExtractor(cfg common.OCRConfig, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Languages == "" {
		cfg.Languages = "eng+ces"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}

	e := &Extractor{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	if e.runner == nil {
		e.runner = NewExecRunner(logger)
	}
	if e.reader == nil {
		e.reader = LedongthucReader{}
	}
	if e.inspector == nil {
		e.inspector = PdfcpuInspector{}
	}
	if e.renderer == nil {
		e.renderer = &Pdftoppm{Runner: e.runner, Binary: cfg.Pdftoppm, TempDir: cfg.TempDir}
	}
	if e.engine == nil {
		e.engine = &Tesseract{Runner: e.runner, Binary: cfg.Tesseract, Languages: cfg.Languages, TessdataDir: cfg.TessdataDir}
	}
	return e
}

// Acquire produces the transcript for one document. Unsupported categories
// fail with common.ErrUnsupportedFormat; any I/O, decode, render or OCR
// failure fails the whole document with common.ErrAcquisition.
func (e *Extractor) Acquire(ctx context.Context, doc entity.Document) (entity.Transcript, error) {
	start := time.Now()
	format := constants.MapMimeToFormat(doc.MimeType)
	log := e.logger.With("path", doc.Path, "mime", doc.MimeType, "format", string(format))

	var (
		tr  entity.Transcript
		err error
	)
	switch format {
	case constants.FormatPDF:
		tr, err = e.acquirePDF(ctx, doc.Path, log)
	case constants.FormatImage:
		tr, err = e.acquireImage(ctx, doc.Path)
	default:
		return entity.Transcript{}, common.UnsupportedFormat(doc.Path, doc.MimeType)
	}
	if err != nil {
		return entity.Transcript{}, err
	}

	log.Info("ocr.acquire.done",
		"pages", tr.Pages,
		"ocr_pages", tr.OCRPages,
		"method", string(tr.Method),
		"chars", len(tr.Text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return tr, nil
}

func (e *Extractor) acquirePDF(ctx context.Context, path string, log *slog.Logger) (entity.Transcript, error) {
	if _, err := os.Stat(path); err != nil {
		return entity.Transcript{}, common.Acquisition("stat pdf", err)
	}
	if err := e.inspector.Validate(path); err != nil {
		log.Warn("ocr.pdf.invalid", "error", err)
	}

	// Without a readable text layer every page goes through OCR.
	doc, openErr := e.reader.Open(path)
	var pages int
	if openErr != nil {
		log.Warn("ocr.pdf.text_unreadable", "error", openErr)
		n, err := e.inspector.PageCount(path)
		if err != nil {
			return entity.Transcript{}, common.Acquisition("open pdf", errors.Join(openErr, err))
		}
		pages = n
	} else {
		defer doc.Close()
		pages = doc.NumPage()
	}
	if pages <= 0 {
		return entity.Transcript{}, common.Acquisition("pdf has no pages", nil)
	}

	parts := make([]string, 0, pages)
	ocrPages := 0
	for n := 1; n <= pages; n++ {
		if err := ctx.Err(); err != nil {
			return entity.Transcript{}, common.Acquisition("pdf cancelled", err)
		}
		if doc != nil {
			embedded, err := doc.PageText(n)
			if err != nil {
				log.Warn("ocr.page.text_failed", "page", n, "error", err)
			}
			embedded = strings.TrimSpace(embedded)
			if embedded != "" && utf8.RuneCountInString(embedded) >= e.cfg.MinPageText {
				parts = append(parts, embedded)
				continue
			}
		}

		log.Debug("ocr.page.fallback", "page", n)
		txt, err := e.ocrPage(ctx, path, n)
		if err != nil {
			return entity.Transcript{}, common.Acquisition("ocr pdf page", err)
		}
		parts = append(parts, txt)
		ocrPages++
	}

	return entity.Transcript{
		Text:       strings.Join(parts, "\n"),
		Pages:      pages,
		OCRPages:   ocrPages,
		Method:     methodFor(pages, ocrPages),
		SourceType: constants.FormatPDF,
	}, nil
}

func (e *Extractor) ocrPage(ctx context.Context, path string, page int) (string, error) {
	img, cleanup, err := e.renderer.RenderPage(ctx, path, page, e.cfg.DPI)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return "", err
	}
	out, err := e.engine.Recognize(ctx, img)
	if err != nil {
		return "", err
	}
	return text.NormalizeOCR(out), nil
}

func (e *Extractor) acquireImage(ctx context.Context, path string) (entity.Transcript, error) {
	src := path
	if constants.IsHEICExt(filepath.Ext(path)) {
		converted, cleanup, err := convertHEIC(ctx, e.runner, e.cfg.HeicConverter, path, e.cfg.TempDir)
		defer cleanup()
		if err != nil {
			return entity.Transcript{}, common.Acquisition("convert heic", err)
		}
		src = converted
	}

	img, err := decodeImage(src)
	if err != nil {
		return entity.Transcript{}, common.Acquisition("decode image", err)
	}
	prepared, err := writePNG(Preprocess(img), e.cfg.TempDir)
	if err != nil {
		return entity.Transcript{}, common.Acquisition("write preprocessed image", err)
	}
	defer os.Remove(prepared)

	out, err := e.engine.Recognize(ctx, prepared)
	if err != nil {
		return entity.Transcript{}, common.Acquisition("ocr image", err)
	}
	return entity.Transcript{
		Text:       text.NormalizeOCR(out),
		Pages:      1,
		OCRPages:   1,
		Method:     constants.MethodOCR,
		SourceType: constants.FormatImage,
	}, nil
}

func methodFor(pages, ocrPages int) constants.ExtractionMethod {
	switch {
	case ocrPages == 0:
		return constants.MethodText
	case ocrPages == pages:
		return constants.MethodOCR
	}
	return constants.MethodMixed
}
