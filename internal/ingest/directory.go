package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/invoice-ledger/constants"
)

// DirectorySources lists the OCR result files directly under root, sorted by
// name. Subdirectories are not descended into.
func DirectorySources(root string, skipHidden bool) ([]Source, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var out []Source
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if skipHidden && IsHidden(e.Name()) {
			continue
		}
		if !constants.IsOCRResult(filepath.Ext(e.Name())) {
			continue
		}
		out = append(out, FileSource{Path: filepath.Join(root, e.Name())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location() < out[j].Location() })
	return out, nil
}

// FileSources keeps the given order. Missing files fail at load time, inside
// the batch, rather than here.
func FileSources(paths []string) []Source {
	out := make([]Source, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, FileSource{Path: p})
	}
	return out
}
