package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// ErrInvalidInput is the cause carried by configuration errors.
var ErrInvalidInput = errors.New("invalid input")

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ProcessingKind classifies a failed document for the scheduler.
type ProcessingKind string

const (
	// KindExtraction covers unrecoverable fields and malformed payloads.
	KindExtraction ProcessingKind = "extraction"
	// KindCollaborator covers storage, OCR and database failures.
	KindCollaborator ProcessingKind = "collaborator"
	// KindInvalidRequest means the request itself was unusable.
	KindInvalidRequest ProcessingKind = "invalid_request"
)

// ProcessingError is returned to the workflow scheduler when one document
// could not be processed.
type ProcessingError struct {
	Kind     ProcessingKind
	Filename string
	Message  string
	Cause    error
}

func NewProcessingError(kind ProcessingKind, filename, message string, cause error) *ProcessingError {
	return &ProcessingError{Kind: kind, Filename: filename, Message: message, Cause: cause}
}

func (e *ProcessingError) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("processing failed: %s", e.Message)
	}
	return fmt.Sprintf("processing %s failed: %s", e.Filename, e.Message)
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether another attempt could succeed. Extraction
// failures are deterministic for the same bytes.
func (e *ProcessingError) Retryable() bool {
	return e.Kind == KindCollaborator
}

// GRPCStatus lets status.FromError map the error for gRPC-based schedulers.
func (e *ProcessingError) GRPCStatus() *status.Status {
	switch e.Kind {
	case KindCollaborator:
		return status.New(codes.Unavailable, e.Error())
	case KindInvalidRequest, KindExtraction:
		return status.New(codes.InvalidArgument, e.Error())
	default:
		return status.New(codes.Internal, e.Error())
	}
}
