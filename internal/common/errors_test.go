package common

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestProcessingError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	tests := []struct {
		name      string
		err       *ProcessingError
		code      codes.Code
		retryable bool
		text      string
	}{
		{
			name:      "collaborator",
			err:       NewProcessingError(KindCollaborator, "a.pdf", "download: "+cause.Error(), cause),
			code:      codes.Unavailable,
			retryable: true,
			text:      "processing a.pdf failed: download: dial tcp: connection refused",
		},
		{
			name: "extraction",
			err:  NewProcessingError(KindExtraction, "b.json", "no invoice number found", nil),
			code: codes.InvalidArgument,
			text: "processing b.json failed: no invoice number found",
		},
		{
			name: "invalid request without filename",
			err:  NewProcessingError(KindInvalidRequest, "", "filename is required", nil),
			code: codes.InvalidArgument,
			text: "processing failed: filename is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.text, tt.err.Error())
			assert.Equal(t, tt.retryable, tt.err.Retryable())
			st, ok := status.FromError(tt.err)
			assert.True(t, ok)
			assert.Equal(t, tt.code, st.Code())
		})
	}

	assert.ErrorIs(t, tests[0].err, cause)
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", BatchIDFromContext(ctx))
	ctx = WithBatchID(ctx, "batch-1")
	ctx = WithRequestID(ctx, "req-1")
	assert.Equal(t, "batch-1", BatchIDFromContext(ctx))
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
}
