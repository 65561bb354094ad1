package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/CsabaConsulting/STTSFunctions/api"
	"github.com/CsabaConsulting/STTSFunctions/config"
	"github.com/CsabaConsulting/STTSFunctions/speech"
	"github.com/CsabaConsulting/STTSFunctions/types"
)

type stubRecognizer struct {
	mu      sync.Mutex
	last    *speech.RecognizeRequest
	results []speech.RecognitionResult
	err     error
}

func (s *stubRecognizer) Recognize(_ context.Context, req *speech.RecognizeRequest) ([]speech.RecognitionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = req
	return s.results, s.err
}

func (s *stubRecognizer) Name() string { return "stub-stt" }

type stubSynthesizer struct {
	last  *speech.SynthesizeRequest
	audio []byte
	err   error
}

func (s *stubSynthesizer) Synthesize(_ context.Context, req *speech.SynthesizeRequest) (*speech.SynthesizeResponse, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return &speech.SynthesizeResponse{Audio: s.audio, Encoding: req.Encoding}, nil
}

func (s *stubSynthesizer) Name() string { return "stub-tts" }

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Auth.Token = "s3cret"
	return cfg
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newTestApp(t *testing.T, endpoint Endpoint, logger *zap.Logger, opts ...Option) (*App, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	opts = append(opts, WithRegistry(reg))
	a, err := New(testConfig(), endpoint, BuildInfo{Version: "1.2.3", BuildTime: "now", GitCommit: "abc"}, logger, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a, reg
}

func TestNew_UnknownEndpoint(t *testing.T) {
	_, err := New(testConfig(), Endpoint("other"), BuildInfo{}, nil)
	require.Error(t, err)
}

func TestNew_InvalidFailurePolicy(t *testing.T) {
	cfg := testConfig()
	cfg.Transcribe.FailurePolicy = "loud"
	_, err := New(cfg, EndpointTranscribe, BuildInfo{}, nil, WithRecognizer(&stubRecognizer{}))
	require.Error(t, err)
}

func TestApp_TranscribeRoundTrip(t *testing.T) {
	rec := &stubRecognizer{results: []speech.RecognitionResult{
		{Alternatives: []speech.Alternative{{Transcript: "hello"}}, LanguageCode: "en-us"},
		{Alternatives: []speech.Alternative{{Transcript: "világ"}}, LanguageCode: "hu-hu"},
	}}
	a, reg := newTestApp(t, EndpointTranscribe, nil, WithRecognizer(rec))

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	params := api.TranscribeParams{Token: "s3cret", Region: "europe-west4"}
	resp, err := http.Post(srv.URL+"/?"+params.Query().Encode(), "application/octet-stream",
		bytes.NewReader(gzipBytes(t, []byte("RIFF-audio"))))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `["hello","en-us","világ","hu-hu"]`, string(body))

	var flat []string
	require.NoError(t, json.Unmarshal(body, &flat))
	pairs, err := api.PairTranscripts(flat)
	require.NoError(t, err)
	assert.Equal(t, []api.TranscriptPair{
		{Transcript: "hello", LanguageCode: "en-us"},
		{Transcript: "világ", LanguageCode: "hu-hu"},
	}, pairs)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	require.NotNil(t, rec.last)
	assert.Equal(t, []byte("RIFF-audio"), rec.last.Audio)
	assert.Equal(t, "europe-west4", rec.last.Region)
	assert.Equal(t, "duet-ai-roadshow-415022", rec.last.ProjectID)

	assert.Equal(t, 1, testutil.CollectAndCount(reg, "stts_gate_decisions_total"))
	assert.Equal(t, 2, testutil.CollectAndCount(reg, "stts_transcript_results_total"))
}

func TestApp_TranscribeDeniedLogsInfo(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	rec := &stubRecognizer{}
	a, _ := newTestApp(t, EndpointTranscribe, zap.New(core), WithRecognizer(rec))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/?token=wrong", bytes.NewReader(gzipBytes(t, []byte("x"))))
	a.Handler().ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Nil(t, rec.last)
	assert.Equal(t, 1, logs.FilterMessage("request denied").Len())
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestApp_TranscribeInternalFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	rec := &stubRecognizer{err: types.NewError(types.ErrUpstreamError, "boom")}
	a, _ := newTestApp(t, EndpointTranscribe, zap.New(core), WithRecognizer(rec))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/?token=s3cret", bytes.NewReader(gzipBytes(t, []byte("x"))))
	a.Handler().ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestApp_SynthesizeRoundTrip(t *testing.T) {
	syn := &stubSynthesizer{audio: []byte("OggS-data")}
	a, _ := newTestApp(t, EndpointSynthesize, nil, WithSynthesizer(syn))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"token":"s3cret","text":"Szia","language_code":"hu-HU"}`))
	r.Header.Set("Content-Type", "application/json")
	a.Handler().ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OggS-data", w.Body.String())
	assert.Equal(t, "audio/ogg", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=response.opus", w.Header().Get("Content-Disposition"))

	require.NotNil(t, syn.last)
	assert.Equal(t, "Szia", syn.last.Text)
	assert.Equal(t, "hu-HU", syn.last.LanguageCode)
	assert.Equal(t, speech.GenderNeutral, syn.last.Gender)
	assert.Equal(t, speech.EncodingOggOpus, syn.last.Encoding)
}

func TestApp_SynthesizeDenied(t *testing.T) {
	syn := &stubSynthesizer{audio: []byte("x")}
	a, _ := newTestApp(t, EndpointSynthesize, nil, WithSynthesizer(syn))

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/?text=hi", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Nil(t, syn.last)
}

func TestApp_HealthAndVersion(t *testing.T) {
	a, _ := newTestApp(t, EndpointSynthesize, nil, WithSynthesizer(&stubSynthesizer{}))
	h := a.Handler()

	for _, path := range []string{"/health", "/healthz", "/ready", "/readyz"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"1.2.3"`)
	assert.Contains(t, w.Body.String(), `"git_commit":"abc"`)
}

func TestApp_ReadyFailsWithMissingCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.Google.CredentialsFile = "/nonexistent/creds.json"
	a, err := New(cfg, EndpointSynthesize, BuildInfo{}, nil,
		WithSynthesizer(&stubSynthesizer{}), WithRegistry(prometheus.NewRegistry()))
	require.NoError(t, err)
	defer a.Close(context.Background())

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestApp_FunctionHandlerIgnoresPath(t *testing.T) {
	syn := &stubSynthesizer{audio: []byte("abc")}
	a, _ := newTestApp(t, EndpointSynthesize, nil, WithSynthesizer(syn))

	w := httptest.NewRecorder()
	params := api.SynthesizeParams{Token: "s3cret", Text: "hi"}
	a.FunctionHandler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tts_test?"+params.Query().Encode(), nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestApp_HandlerServesEndpointOnAnyPath(t *testing.T) {
	syn := &stubSynthesizer{audio: []byte("abc")}
	a, _ := newTestApp(t, EndpointSynthesize, nil, WithSynthesizer(syn))
	h := a.Handler()

	for _, path := range []string{"/", "/tts_test", "/v1/speak/now"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path+"?token=s3cret&text=hi", nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "abc", w.Body.String(), path)
	}
}

func TestApp_MetricsHandler(t *testing.T) {
	a, _ := newTestApp(t, EndpointSynthesize, nil, WithSynthesizer(&stubSynthesizer{}))

	// 先产生一次请求，使 HTTP 指标出现
	a.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	w := httptest.NewRecorder()
	a.MetricsHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "stts_http_requests_total")
}

func TestApp_CloseIdempotent(t *testing.T) {
	a, _ := newTestApp(t, EndpointSynthesize, nil, WithSynthesizer(&stubSynthesizer{}))
	assert.NoError(t, a.Close(context.Background()))
	assert.NoError(t, a.Close(context.Background()))
}
