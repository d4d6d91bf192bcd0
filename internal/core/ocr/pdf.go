package ocr

import (
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFReader opens a PDF for per-page embedded text extraction.
type PDFReader interface {
	Open(path string) (PDFDocument, error)
}

// PDFDocument exposes pages numbered from 1.
type PDFDocument interface {
	NumPage() int
	PageText(page int) (string, error)
	Close() error
}

// PDFInspector validates a PDF and counts its pages without extracting text.
type PDFInspector interface {
	Validate(path string) error
	PageCount(path string) (int, error)
}

// LedongthucReader reads embedded text with github.com/ledongthuc/pdf.
type LedongthucReader struct{}

func (LedongthucReader) Open(path string) (PDFDocument, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	return &ledongthucDoc{closer: f.Close, r: r}, nil
}

type ledongthucDoc struct {
	closer func() error
	r      *pdf.Reader
}

func (d *ledongthucDoc) NumPage() int { return d.r.NumPage() }

func (d *ledongthucDoc) PageText(page int) (text string, err error) {
	// the content stream parser panics on some malformed fonts
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d: %v", page, rec)
		}
	}()
	p := d.r.Page(page)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

func (d *ledongthucDoc) Close() error { return d.closer() }

// PdfcpuInspector validates in relaxed mode, which tolerates the small PDF
// format violations common in generated invoices.
type PdfcpuInspector struct{}

func (PdfcpuInspector) Validate(path string) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.ValidateFile(path, conf)
}

func (PdfcpuInspector) PageCount(path string) (int, error) {
	return api.PageCountFile(path)
}
