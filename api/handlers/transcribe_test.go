package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/CsabaConsulting/STTSFunctions/gate"
	"github.com/CsabaConsulting/STTSFunctions/speech"
	"github.com/CsabaConsulting/STTSFunctions/transcribe"
	"github.com/CsabaConsulting/STTSFunctions/types"
)

func newTranscribeHandler(rec *fakeRecognizer, policy FailurePolicy) (*TranscribeHandler, *observer.ObservedLogs, *fakeEndpointRecorder) {
	core, logs := observer.New(zapcore.DebugLevel)
	metrics := &fakeEndpointRecorder{}
	adapter := transcribe.NewAdapter(rec, gate.NewGate("abc"), transcribe.Options{
		DefaultProjectID:     "p",
		DefaultRegion:        "us-central1",
		MaxDecompressedBytes: 1 << 20,
	})
	h := NewTranscribeHandler(adapter, HandlerOptions{
		Policy:       policy,
		MaxBodyBytes: 1 << 20,
		Recorder:     metrics,
	}, zap.New(core))
	return h, logs, metrics
}

func transcribeRequest(target string, body []byte) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/octet-stream")
	return r.WithContext(types.WithRequestID(r.Context(), "req-42"))
}

func errorLogs(logs *observer.ObservedLogs) []observer.LoggedEntry {
	return logs.FilterLevelExact(zapcore.ErrorLevel).All()
}

func TestTranscribeHandler_Authorized(t *testing.T) {
	rec := &fakeRecognizer{results: []speech.RecognitionResult{{
		Alternatives: []speech.Alternative{{Transcript: "hello"}},
		LanguageCode: "en-US",
	}}}
	h, logs, metrics := newTranscribeHandler(rec, PolicyLegacy)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, transcribeRequest("/?token=abc", gzipAudio([]byte("audio"))))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["hello","en-US"]`, w.Body.String())
	assert.Equal(t, 1, rec.calls)
	assert.Empty(t, errorLogs(logs))
	assert.Contains(t, metrics.calls, recorderCall{"gate", EndpointTranscribe, "ok"})
	assert.Contains(t, metrics.calls, recorderCall{"result", "", "en-US"})
}

func TestTranscribeHandler_Denied(t *testing.T) {
	rec := &fakeRecognizer{}
	h, logs, metrics := newTranscribeHandler(rec, PolicyLegacy)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, transcribeRequest("/?token=wrong", gzipAudio([]byte("audio"))))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Zero(t, rec.calls)

	// 拒绝只记录 Info，和内部失败区分
	assert.Empty(t, errorLogs(logs))
	denied := logs.FilterMessage("request denied").All()
	require.Len(t, denied, 1)
	assert.Equal(t, zapcore.InfoLevel, denied[0].Level)
	assert.Equal(t, "denied", denied[0].ContextMap()["outcome"])
	assert.Equal(t, "req-42", denied[0].ContextMap()["request_id"])
	assert.Equal(t, []recorderCall{{"gate", EndpointTranscribe, "denied"}}, metrics.calls)
}

func TestTranscribeHandler_ProviderFailureLegacy(t *testing.T) {
	rec := &fakeRecognizer{err: types.NewError(types.ErrUpstreamError, "provider call failed")}
	h, logs, metrics := newTranscribeHandler(rec, PolicyLegacy)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, transcribeRequest("/?token=abc", gzipAudio([]byte("audio"))))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Equal(t, 1, rec.calls)

	entries := errorLogs(logs)
	require.Len(t, entries, 1)
	assert.Equal(t, "transcription failed", entries[0].Message)
	assert.Equal(t, "UPSTREAM_ERROR", entries[0].ContextMap()["code"])
	assert.Equal(t, "internal_error", entries[0].ContextMap()["outcome"])
	assert.Contains(t, metrics.calls, recorderCall{"failure", EndpointTranscribe, "UPSTREAM_ERROR"})
}

func TestTranscribeHandler_ResultWithoutAlternativesLegacy(t *testing.T) {
	rec := &fakeRecognizer{results: []speech.RecognitionResult{
		{LanguageCode: "en-US"},
		{Alternatives: []speech.Alternative{{Transcript: "hi"}}, LanguageCode: "en-US"},
	}}
	h, logs, _ := newTranscribeHandler(rec, PolicyLegacy)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, transcribeRequest("/?token=abc", gzipAudio([]byte("audio"))))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	require.Len(t, errorLogs(logs), 1)
	assert.Equal(t, "INTERNAL_ERROR", errorLogs(logs)[0].ContextMap()["code"])
}

func TestTranscribeHandler_InvalidGzipLegacy(t *testing.T) {
	rec := &fakeRecognizer{}
	h, logs, _ := newTranscribeHandler(rec, PolicyLegacy)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, transcribeRequest("/?token=abc", []byte("raw wav")))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Zero(t, rec.calls)
	require.Len(t, errorLogs(logs), 1)
	assert.Equal(t, "DECOMPRESSION_FAILED", errorLogs(logs)[0].ContextMap()["code"])
}

func TestTranscribeHandler_ProviderFailureStrict(t *testing.T) {
	rec := &fakeRecognizer{err: types.NewError(types.ErrUpstreamTimeout, "provider call timed out")}
	h, logs, _ := newTranscribeHandler(rec, PolicyStrict)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, transcribeRequest("/?token=abc", gzipAudio([]byte("audio"))))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"UPSTREAM_TIMEOUT"`)
	assert.Len(t, errorLogs(logs), 1)
}

func TestTranscribeHandler_DeniedStrictStillEmptySuccess(t *testing.T) {
	rec := &fakeRecognizer{}
	h, _, _ := newTranscribeHandler(rec, PolicyStrict)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, transcribeRequest("/", gzipAudio([]byte("audio"))))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestTranscribeHandler_TokenFromJSONBody(t *testing.T) {
	rec := &fakeRecognizer{}
	h, _, metrics := newTranscribeHandler(rec, PolicyLegacy)

	r := httptest.NewRequest(http.MethodPost, "/?token=wrong", strings.NewReader(`{"token":"abc"}`))
	r.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	// JSON 中的 token 优先，校验通过；请求体不是 gzip，因此以解压失败结束
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, rec.calls)
	assert.Equal(t, []recorderCall{
		{"gate", EndpointTranscribe, "ok"},
		{"failure", EndpointTranscribe, "DECOMPRESSION_FAILED"},
	}, metrics.calls)
}

func TestTranscribeHandler_BodyTooLarge(t *testing.T) {
	rec := &fakeRecognizer{}
	core, logs := observer.New(zapcore.DebugLevel)
	metrics := &fakeEndpointRecorder{}
	adapter := transcribe.NewAdapter(rec, gate.NewGate("abc"), transcribe.Options{})
	h := NewTranscribeHandler(adapter, HandlerOptions{MaxBodyBytes: 8, Recorder: metrics}, zap.New(core))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, transcribeRequest("/?token=abc", bytes.Repeat([]byte("x"), 9)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	require.Len(t, errorLogs(logs), 1)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", errorLogs(logs)[0].ContextMap()["code"])
	// 请求体未解析，不计入鉴权结果
	assert.Equal(t, []recorderCall{{"failure", EndpointTranscribe, "PAYLOAD_TOO_LARGE"}}, metrics.calls)
}

func TestTranscribeHandler_BodyTooLargeWrongTokenDenied(t *testing.T) {
	rec := &fakeRecognizer{}
	core, logs := observer.New(zapcore.DebugLevel)
	metrics := &fakeEndpointRecorder{}
	adapter := transcribe.NewAdapter(rec, gate.NewGate("abc"), transcribe.Options{})
	h := NewTranscribeHandler(adapter, HandlerOptions{MaxBodyBytes: 8, Recorder: metrics}, zap.New(core))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, transcribeRequest("/?token=wrong", bytes.Repeat([]byte("x"), 9)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Zero(t, rec.calls)
	assert.Empty(t, errorLogs(logs))
	assert.Equal(t, 1, logs.FilterMessage("request denied").Len())
	assert.Equal(t, []recorderCall{{"gate", EndpointTranscribe, "denied"}}, metrics.calls)
}

func TestTranscribeHandler_ZeroResults(t *testing.T) {
	rec := &fakeRecognizer{}
	h, logs, _ := newTranscribeHandler(rec, PolicyLegacy)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, transcribeRequest("/?token=abc", gzipAudio([]byte("silence"))))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Empty(t, errorLogs(logs))
}
