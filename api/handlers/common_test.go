package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/CsabaConsulting/STTSFunctions/types"
)

// =============================================================================
// 🧪 Common 函数测试
// =============================================================================

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name       string
		data       any
		wantStatus int
		wantBody   string
	}{
		{
			name:       "simple object",
			data:       map[string]string{"message": "hello"},
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"hello"}`,
		},
		{
			name:       "empty transcript list",
			data:       []string{},
			wantStatus: http.StatusOK,
			wantBody:   `[]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteJSON(w, tt.wantStatus, tt.data)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name           string
		err            *types.Error
		expectedStatus int
	}{
		{"invalid request", types.NewError(types.ErrInvalidRequest, "bad region"), http.StatusBadRequest},
		{"decompression", types.NewError(types.ErrDecompression, "invalid gzip"), http.StatusBadRequest},
		{"denied", types.NewError(types.ErrDenied, "token mismatch"), http.StatusForbidden},
		{"too large", types.NewError(types.ErrPayloadTooLarge, "too big"), http.StatusRequestEntityTooLarge},
		{"upstream timeout", types.NewError(types.ErrUpstreamTimeout, "slow"), http.StatusGatewayTimeout},
		{"unavailable", types.NewError(types.ErrProviderUnavailable, "down"), http.StatusServiceUnavailable},
		{"upstream error", types.NewError(types.ErrUpstreamError, "rejected"), http.StatusBadGateway},
		{"internal", types.NewError(types.ErrInternalError, "boom"), http.StatusInternalServerError},
		{"explicit status wins", types.NewError(types.ErrInternalError, "x").WithHTTPStatus(http.StatusTeapot), http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err, zap.NewNop())

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp Response
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, string(tt.err.Code), resp.Error.Code)
			assert.Equal(t, tt.err.Message, resp.Error.Message)
		})
	}
}

func TestWriteErrorWithRequestID_LogsOnceWithoutLeakingCause(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	w := httptest.NewRecorder()

	err := types.WrapError(errors.New("secret backend detail"), types.ErrUpstreamError, "provider call failed").
		WithProvider("google-stt")
	WriteErrorWithRequestID(w, err, "req-1", zap.New(core))

	assert.NotContains(t, w.Body.String(), "secret backend detail")

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "req-1", resp.RequestID)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "google-stt", entry.ContextMap()["provider"])
	assert.Equal(t, "req-1", entry.ContextMap()["request_id"])
}

func TestWriteErrorMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestParseFailurePolicy(t *testing.T) {
	p, err := ParseFailurePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyLegacy, p)

	p, err = ParseFailurePolicy("strict")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	_, err = ParseFailurePolicy("quiet")
	assert.Error(t, err)
}
