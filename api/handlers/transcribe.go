package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/CsabaConsulting/STTSFunctions/gate"
	"github.com/CsabaConsulting/STTSFunctions/transcribe"
	"github.com/CsabaConsulting/STTSFunctions/types"
)

// EndpointTranscribe 识别入口在日志与指标中的名称
const EndpointTranscribe = "transcribe"

// TranscribeHandler 识别入口的 HTTP 处理器
type TranscribeHandler struct {
	adapter *transcribe.Adapter
	opts    HandlerOptions
	logger  *zap.Logger
}

// NewTranscribeHandler 创建识别入口处理器
func NewTranscribeHandler(adapter *transcribe.Adapter, opts HandlerOptions, logger *zap.Logger) *TranscribeHandler {
	return &TranscribeHandler{
		adapter: adapter,
		opts:    opts.withDefaults(),
		logger:  logger.With(zap.String("endpoint", EndpointTranscribe)),
	}
}

// ServeHTTP 接受任意方法；原始请求体为 gzip 音频，参数来自 JSON 或查询串
func (h *TranscribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID, _ := types.RequestID(r.Context())

	req, err := gate.ParseRequest(r, h.opts.MaxBodyBytes)
	if err != nil {
		// 请求体超限时按查询串中的 token 鉴权，不匹配仍按拒绝处理
		if req != nil {
			if authErr := h.adapter.Authorize(req); types.IsDenied(authErr) {
				h.deny(w, authErr, requestID)
				return
			}
		}
		h.fail(w, asTypedError(err), requestID, false)
		return
	}

	res, err := h.adapter.Run(r.Context(), req)
	switch {
	case err == nil:
		recordOutcome(h.opts.Recorder, EndpointTranscribe, nil, true)
		for _, result := range res.Results {
			h.opts.Recorder.RecordTranscriptResult(result.LanguageCode)
		}
		h.logger.Debug("transcription completed",
			zap.String("request_id", requestID),
			zap.String("project_id", res.ProjectID),
			zap.String("region", res.Region),
			zap.Int("results", len(res.Results)),
		)
		WriteJSON(w, http.StatusOK, res.Transcripts)

	case types.IsDenied(err):
		h.deny(w, err, requestID)

	default:
		h.fail(w, asTypedError(err), requestID, true)
	}
}

// deny 拒绝时返回空数组，只记录一条 Info 日志
func (h *TranscribeHandler) deny(w http.ResponseWriter, err error, requestID string) {
	recordOutcome(h.opts.Recorder, EndpointTranscribe, err, true)
	h.logger.Info("request denied",
		zap.String("outcome", string(types.OutcomeDenied)),
		zap.String("request_id", requestID),
	)
	WriteJSON(w, http.StatusOK, []string{})
}

// fail 按失败策略写出内部失败，并且只记录一条 Error 日志
func (h *TranscribeHandler) fail(w http.ResponseWriter, err *types.Error, requestID string, parsed bool) {
	recordOutcome(h.opts.Recorder, EndpointTranscribe, err, parsed)

	if h.opts.Policy == PolicyStrict {
		WriteErrorWithRequestID(w, err, requestID, h.logger)
		return
	}

	fields := []zap.Field{
		zap.String("outcome", string(types.OutcomeInternalError)),
		zap.String("code", string(err.Code)),
		zap.String("request_id", requestID),
		zap.Error(err),
	}
	if err.Provider != "" {
		fields = append(fields, zap.String("provider", err.Provider))
	}
	h.logger.Error("transcription failed", fields...)
	WriteJSON(w, http.StatusOK, []string{})
}
