package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// convertHEIC converts a HEIC/HEIF file to PNG with an external tool, since
// no decoder for the format exists in the image packages we use. The caller
// must invoke cleanup, also when err is non-nil.
func convertHEIC(ctx context.Context, r Runner, converter, in, tempDir string) (string, func(), error) {
	tmpDir, err := os.MkdirTemp(tempDir, "ir-heic-*")
	if err != nil {
		return "", func() {}, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "image.png")

	switch filepath.Base(converter) {
	case "heif-convert", "magick", "convert":
		_, err = r.Run(ctx, converter, in, out)
	case "sips":
		_, err = r.Run(ctx, converter, "-s", "format", "png", in, "--out", out)
	default:
		return "", cleanup, fmt.Errorf("HEIC not supported: set ocr.heicConverter to one of: heif-convert | magick | sips")
	}
	if err != nil {
		return "", cleanup, fmt.Errorf("heic conversion: %w", err)
	}
	if _, statErr := os.Stat(out); statErr != nil {
		return "", cleanup, fmt.Errorf("heic conversion produced no output: %w", statErr)
	}
	return out, cleanup, nil
}
