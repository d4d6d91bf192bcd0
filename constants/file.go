package constants

import "strings"

// Format is the coarse document category used to pick an acquisition path.
type Format string

const (
	FormatPDF     Format = "PDF"
	FormatImage   Format = "IMAGE"
	FormatUnknown Format = ""
)

// FileTypes holds the formats the acquisition stage can handle.
var FileTypes = []string{string(FormatPDF), string(FormatImage)}

// AllowedExtensions holds the default allowed file extensions for invoice ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tif":  {},
	"tiff": {},
	"bmp":  {},
	"webp": {},
	"heic": {},
	"heif": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsHEICExt reports whether ext (with or without the dot) is an HEIC/HEIF container.
func IsHEICExt(ext string) bool {
	switch NormalizeExt(ext) {
	case "heic", "heif":
		return true
	}
	return false
}

// MapMimeToFormat maps a MIME type to a Format. Parameters such as
// "; charset=binary" are ignored.
func MapMimeToFormat(mime string) Format {
	m := strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	switch {
	case m == "application/pdf", m == "application/x-pdf":
		return FormatPDF
	case strings.HasPrefix(m, "image/"):
		return FormatImage
	}
	return FormatUnknown
}

// MapExtToMime returns a MIME type for a known extension, or "" when unknown.
func MapExtToMime(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return "application/pdf"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "tif", "tiff":
		return "image/tiff"
	case "bmp":
		return "image/bmp"
	case "webp":
		return "image/webp"
	case "heic":
		return "image/heic"
	case "heif":
		return "image/heif"
	}
	return ""
}
