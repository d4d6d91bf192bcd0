package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// PageRenderer rasterizes a single PDF page. The caller must invoke cleanup
// once it is done with the image, also when err is non-nil.
type PageRenderer interface {
	RenderPage(ctx context.Context, pdfPath string, page, dpi int) (imagePath string, cleanup func(), err error)
}

// Pdftoppm renders pages with poppler's pdftoppm.
type Pdftoppm struct {
	Runner  Runner
	Binary  string
	TempDir string
}

func (p *Pdftoppm) RenderPage(ctx context.Context, pdfPath string, page, dpi int) (string, func(), error) {
	tmpDir, err := os.MkdirTemp(p.TempDir, "ir-page-*")
	if err != nil {
		return "", func() {}, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	n := strconv.Itoa(page)
	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -f n -l n -png -singlefile <in.pdf> <tmp/page>
	_, err = p.Runner.Run(ctx, p.Binary,
		"-r", strconv.Itoa(dpi),
		"-f", n, "-l", n,
		"-png", "-singlefile",
		pdfPath, prefix,
	)
	if err != nil {
		return "", cleanup, fmt.Errorf("pdftoppm page %d: %w", page, err)
	}

	out := prefix + ".png"
	if _, statErr := os.Stat(out); statErr != nil {
		return "", cleanup, fmt.Errorf("pdftoppm page %d produced no image: %w", page, statErr)
	}
	return out, cleanup, nil
}
