package speech

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/CsabaConsulting/STTSFunctions/types"
)

// classifyError 将 Provider 返回的错误归类为 *types.Error，nil 原样返回
func classifyError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := types.AsError(err); ok {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return types.WrapError(err, types.ErrUpstreamTimeout, "provider call timed out").
			WithProvider(provider)
	}
	if errors.Is(err, context.Canceled) {
		return types.WrapError(err, types.ErrUpstreamError, "provider call cancelled").
			WithProvider(provider)
	}

	st, ok := status.FromError(err)
	if !ok {
		return types.WrapError(err, types.ErrUpstreamError, "provider call failed").
			WithProvider(provider)
	}

	switch st.Code() {
	case codes.DeadlineExceeded:
		return types.WrapError(err, types.ErrUpstreamTimeout, "provider call timed out").
			WithProvider(provider)
	case codes.Unavailable, codes.ResourceExhausted:
		return types.WrapError(err, types.ErrProviderUnavailable, "provider unavailable").
			WithProvider(provider).
			WithRetryable(true)
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return types.WrapError(err, types.ErrUpstreamError, "provider rejected request").
			WithProvider(provider)
	default:
		return types.WrapError(err, types.ErrUpstreamError, "provider call failed").
			WithProvider(provider)
	}
}
