package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/invoice-reader/constants"
)

// AllowedExt checks if a file extension is in the allowed set.
func AllowedExt(ext string, allowed map[string]struct{}) bool {
	if allowed == nil {
		allowed = constants.AllowedExtensions
	}
	_, ok := allowed[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return base != "." && base != ".." && strings.HasPrefix(base, ".")
}
