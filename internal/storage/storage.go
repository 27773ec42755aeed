package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Download when the object does not exist.
var ErrNotFound = errors.New("object not found")

// UploadResult says what an upload did to the target object.
type UploadResult int

const (
	Created UploadResult = iota + 1
	Updated
	// AlreadyExists means upsert was off and the object was left untouched.
	AlreadyExists
)

func (r UploadResult) String() string {
	switch r {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case AlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}

// Store is the object storage collaborator.
type Store interface {
	Download(ctx context.Context, bucket, name string) ([]byte, error)
	// Upload writes data at path. With upsert false an existing object is
	// reported as AlreadyExists instead of being overwritten.
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string, upsert bool) (UploadResult, error)
	List(ctx context.Context, bucket, prefix string) ([]string, error)
}
