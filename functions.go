// Package sttsfunctions registers the speech entry points with the Cloud
// Functions Go framework.
//
//	chirp_test  gzip audio in, [transcript, language_code, ...] out
//	tts_test    text + language_code in, OGG_OPUS audio out
//
// Each entry point is built lazily on its first request from the process
// environment (STTS_* variables and the legacy TOKEN, PROJECT_ID, REGION,
// LANGUAGE_CODE and GOOGLE_APPLICATION_CREDENTIALS).
package sttsfunctions

import (
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"go.uber.org/zap"

	"github.com/CsabaConsulting/STTSFunctions/internal/app"
)

const (
	// TranscribeFunction is the registered name of the transcription entry point.
	TranscribeFunction = "chirp_test"
	// SynthesizeFunction is the registered name of the synthesis entry point.
	SynthesizeFunction = "tts_test"
)

func init() {
	functions.HTTP(TranscribeFunction, newLazyFunction(app.EndpointTranscribe).ServeHTTP)
	functions.HTTP(SynthesizeFunction, newLazyFunction(app.EndpointSynthesize).ServeHTTP)
}

// lazyFunction builds its App on the first request. A failed build is retried on the next request.
type lazyFunction struct {
	endpoint app.Endpoint
	build    func(app.Endpoint) (http.Handler, error)
	logger   *zap.Logger

	mu      sync.Mutex
	handler http.Handler
}

func newLazyFunction(endpoint app.Endpoint) *lazyFunction {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	return &lazyFunction{endpoint: endpoint, build: buildFunction, logger: logger}
}

// get 返回已构建的处理器；构建失败不缓存，下一个请求重试
func (f *lazyFunction) get() (http.Handler, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handler != nil {
		return f.handler, nil
	}
	h, err := f.build(f.endpoint)
	if err != nil {
		return nil, err
	}
	f.handler = h
	return h, nil
}

func (f *lazyFunction) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h, err := f.get()
	if err != nil {
		f.logger.Error("function unavailable",
			zap.String("endpoint", string(f.endpoint)),
			zap.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.ServeHTTP(w, r)
}

func buildFunction(endpoint app.Endpoint) (http.Handler, error) {
	cfg, err := app.LoadConfig("", "")
	if err != nil {
		return nil, err
	}
	logger, err := app.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, endpoint, app.BuildInfo{Version: "function"}, logger)
	if err != nil {
		return nil, err
	}
	return a.FunctionHandler(), nil
}
