package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalStore keeps one directory per bucket under Root.
type LocalStore struct {
	Root   string
	logger *slog.Logger
}

func NewLocalStore(root string, logger *slog.Logger) *LocalStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalStore{Root: root, logger: logger}
}

func (s *LocalStore) bucketDir(bucket string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", fmt.Errorf("invalid bucket %q", bucket)
	}
	return filepath.Join(s.Root, bucket), nil
}

// resolve keeps object names inside the bucket directory.
func (s *LocalStore) resolve(bucket, name string) (string, error) {
	dir, err := s.bucketDir(bucket)
	if err != nil {
		return "", err
	}
	clean := filepath.Clean("/" + filepath.FromSlash(name))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return filepath.Join(dir, clean), nil
}

func (s *LocalStore) Download(_ context.Context, bucket, name string) ([]byte, error) {
	p, err := s.resolve(bucket, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", bucket, name, ErrNotFound)
	}
	return data, err
}

func (s *LocalStore) Upload(_ context.Context, bucket, path string, data []byte, _ string, upsert bool) (UploadResult, error) {
	p, err := s.resolve(bucket, path)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return 0, err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	f, err := os.OpenFile(p, flags, 0o644)
	result := Created
	if errors.Is(err, fs.ErrExist) {
		if !upsert {
			s.logger.Debug("object already exists", "bucket", bucket, "path", path)
			return AlreadyExists, nil
		}
		f, err = os.OpenFile(p, os.O_WRONLY|os.O_TRUNC, 0o644)
		result = Updated
	}
	if err != nil {
		return 0, err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, err
	}
	s.logger.Debug("object uploaded", "bucket", bucket, "path", path, "result", result.String())
	return result, nil
}

func (s *LocalStore) List(_ context.Context, bucket, prefix string) ([]string, error) {
	root, err := s.bucketDir(bucket)
	if err != nil {
		return nil, err
	}
	var out []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
