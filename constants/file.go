package constants

import "strings"

// OCRResultExtensions holds the extensions accepted as OCR result payloads.
var OCRResultExtensions = map[string]struct{}{
	"json": {},
}

// RawDocumentExtensions holds extensions that must go through OCR first.
var RawDocumentExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// Storage prefixes used by the activity.
const (
	OCROutputPrefix = "json-output/"
	ResultPrefix    = "results/"
	ContentTypeJSON = "application/json"
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsOCRResult reports whether ext names an OCR result payload.
func IsOCRResult(ext string) bool {
	_, ok := OCRResultExtensions[NormalizeExt(ext)]
	return ok
}
