package speech

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/CsabaConsulting/STTSFunctions/types"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  types.ErrorCode
		retryable bool
	}{
		{"context deadline", context.DeadlineExceeded, types.ErrUpstreamTimeout, false},
		{"wrapped context deadline", fmt.Errorf("rpc: %w", context.DeadlineExceeded), types.ErrUpstreamTimeout, false},
		{"cancelled", context.Canceled, types.ErrUpstreamError, false},
		{"grpc deadline", status.Error(codes.DeadlineExceeded, "slow"), types.ErrUpstreamTimeout, false},
		{"grpc unavailable", status.Error(codes.Unavailable, "down"), types.ErrProviderUnavailable, true},
		{"grpc exhausted", status.Error(codes.ResourceExhausted, "quota"), types.ErrProviderUnavailable, true},
		{"grpc invalid argument", status.Error(codes.InvalidArgument, "bad audio"), types.ErrUpstreamError, false},
		{"grpc permission denied", status.Error(codes.PermissionDenied, "no"), types.ErrUpstreamError, false},
		{"plain error", errors.New("boom"), types.ErrUpstreamError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyError("google-stt", tt.err)
			require.Error(t, err)

			e, ok := types.AsError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, e.Code)
			assert.Equal(t, tt.retryable, e.Retryable)
			assert.Equal(t, "google-stt", e.Provider)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestClassifyError_KeepsTypedErrors(t *testing.T) {
	typed := types.NewError(types.ErrInvalidRequest, "bad region")
	assert.Same(t, typed, classifyError("google-stt", typed))
	assert.NoError(t, classifyError("google-stt", nil))
}
