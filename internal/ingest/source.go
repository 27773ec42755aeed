package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/invoice-ledger/internal/storage"
)

// Source is one OCR result waiting to be ingested.
type Source interface {
	// Name is the artifact's own filename, used when the payload carries none.
	Name() string
	// Location is where the artifact lives (path or bucket key).
	Location() string
	Bucket() string
	Load(ctx context.Context) ([]byte, error)
}

// FileSource reads an OCR result from the local filesystem.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string     { return filepath.Base(s.Path) }
func (s FileSource) Location() string { return s.Path }
func (s FileSource) Bucket() string   { return "" }

func (s FileSource) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return data, nil
}

// BytesSource wraps a payload already in memory.
type BytesSource struct {
	Filename string
	Path     string
	Data     []byte
	From     string
}

func (s BytesSource) Name() string { return s.Filename }

func (s BytesSource) Location() string {
	if s.Path != "" {
		return s.Path
	}
	return s.Filename
}

func (s BytesSource) Bucket() string { return s.From }

func (s BytesSource) Load(_ context.Context) ([]byte, error) { return s.Data, nil }

// StorageSource downloads an OCR result from object storage on Load.
type StorageSource struct {
	Store      storage.Store
	BucketName string
	Key        string
}

func (s StorageSource) Name() string     { return filepath.Base(s.Key) }
func (s StorageSource) Location() string { return s.Key }
func (s StorageSource) Bucket() string   { return s.BucketName }

func (s StorageSource) Load(ctx context.Context) ([]byte, error) {
	data, err := s.Store.Download(ctx, s.BucketName, s.Key)
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", s.BucketName, s.Key, err)
	}
	return data, nil
}

// FailedSource always fails to load. It keeps an input that could not be
// resolved in the batch so it is still accounted for.
type FailedSource struct {
	Filename string
	Err      error
}

func (s FailedSource) Name() string                           { return s.Filename }
func (s FailedSource) Location() string                       { return s.Filename }
func (s FailedSource) Bucket() string                         { return "" }
func (s FailedSource) Load(_ context.Context) ([]byte, error) { return nil, s.Err }
