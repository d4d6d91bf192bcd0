package ocr

import (
	"context"
	"fmt"
	"regexp"
)

// OCREngine turns one image file into text.
type OCREngine interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

var reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)

// Tesseract shells out to the tesseract CLI.
type Tesseract struct {
	Runner      Runner
	Binary      string
	Languages   string
	TessdataDir string
}

func (t *Tesseract) Recognize(ctx context.Context, imagePath string) (string, error) {
	// tesseract <file> stdout -l <lang>
	args := []string{imagePath, "stdout", "-l", t.Languages}
	if t.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.TessdataDir)
	}
	out, err := t.Runner.Run(ctx, t.Binary, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	// ruler lines are noise for the model
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}
