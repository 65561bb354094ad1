package handlers

import (
	"bytes"
	"context"
	"sync"

	"github.com/klauspost/compress/gzip"

	"github.com/CsabaConsulting/STTSFunctions/speech"
)

// =============================================================================
// 🧪 测试辅助类型
// =============================================================================

type fakeRecognizer struct {
	mu      sync.Mutex
	calls   int
	results []speech.RecognitionResult
	err     error
}

func (f *fakeRecognizer) Recognize(context.Context, *speech.RecognizeRequest) ([]speech.RecognitionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.results, f.err
}

func (f *fakeRecognizer) Name() string { return "fake-stt" }

type fakeSynthesizer struct {
	calls int
	last  *speech.SynthesizeRequest
	audio []byte
	err   error
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, req *speech.SynthesizeRequest) (*speech.SynthesizeResponse, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &speech.SynthesizeResponse{Audio: f.audio, Encoding: req.Encoding}, nil
}

func (f *fakeSynthesizer) Name() string { return "fake-tts" }

type recorderCall struct{ kind, endpoint, value string }

type fakeEndpointRecorder struct {
	mu    sync.Mutex
	calls []recorderCall
}

func (r *fakeEndpointRecorder) add(c recorderCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *fakeEndpointRecorder) RecordGateDecision(endpoint, outcome string) {
	r.add(recorderCall{"gate", endpoint, outcome})
}

func (r *fakeEndpointRecorder) RecordPipelineFailure(endpoint, code string) {
	r.add(recorderCall{"failure", endpoint, code})
}

func (r *fakeEndpointRecorder) RecordTranscriptResult(languageCode string) {
	r.add(recorderCall{"result", "", languageCode})
}

func gzipAudio(data []byte) []byte {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write(data)
	_ = zw.Close()
	return buf.Bytes()
}
