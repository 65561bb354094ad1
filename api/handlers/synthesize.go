package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/CsabaConsulting/STTSFunctions/gate"
	"github.com/CsabaConsulting/STTSFunctions/synthesize"
	"github.com/CsabaConsulting/STTSFunctions/types"
)

// EndpointSynthesize 合成入口在日志与指标中的名称
const EndpointSynthesize = "synthesize"

// SynthesizeHandler 合成入口的 HTTP 处理器
type SynthesizeHandler struct {
	adapter *synthesize.Adapter
	opts    HandlerOptions
	logger  *zap.Logger
}

// NewSynthesizeHandler 创建合成入口处理器
func NewSynthesizeHandler(adapter *synthesize.Adapter, opts HandlerOptions, logger *zap.Logger) *SynthesizeHandler {
	return &SynthesizeHandler{
		adapter: adapter,
		opts:    opts.withDefaults(),
		logger:  logger.With(zap.String("endpoint", EndpointSynthesize)),
	}
}

// ServeHTTP 接受任意方法；成功时返回音频字节
func (h *SynthesizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	audio, err := h.adapter.Synthesize(r.Context(), req)
	switch {
	case err == nil:
		recordOutcome(h.opts.Recorder, EndpointSynthesize, nil, true)
		for k, v := range audio.Headers() {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(audio.Audio)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(audio.Audio)

	case types.IsDenied(err):
		h.deny(w, err, requestID)

	default:
		h.fail(w, asTypedError(err), requestID, true)
	}
}

// deny 拒绝时返回 200 空响应体，只记录一条 Info 日志
func (h *SynthesizeHandler) deny(w http.ResponseWriter, err error, requestID string) {
	recordOutcome(h.opts.Recorder, EndpointSynthesize, err, true)
	h.logger.Info("request denied",
		zap.String("outcome", string(types.OutcomeDenied)),
		zap.String("request_id", requestID),
	)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(http.StatusOK)
}

// fail 合成失败总是返回错误状态；legacy 下响应体只包含通用状态文本
func (h *SynthesizeHandler) fail(w http.ResponseWriter, err *types.Error, requestID string, parsed bool) {
	recordOutcome(h.opts.Recorder, EndpointSynthesize, err, parsed)

	if h.opts.Policy == PolicyStrict {
		WriteErrorWithRequestID(w, err, requestID, h.logger)
		return
	}

	status := StatusFor(err)
	fields := []zap.Field{
		zap.String("outcome", string(types.OutcomeInternalError)),
		zap.String("code", string(err.Code)),
		zap.Int("status", status),
		zap.String("request_id", requestID),
		zap.Error(err),
	}
	if err.Provider != "" {
		fields = append(fields, zap.String("provider", err.Provider))
	}
	h.logger.Error("synthesis failed", fields...)
	http.Error(w, http.StatusText(status), status)
}
