package ingest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/invoice-ledger/constants"
)

// AllowedExt reports whether ext is an OCR result extension.
func AllowedExt(ext string) bool {
	return constants.IsOCRResult(ext)
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
