package handlers

import (
	"fmt"

	"github.com/CsabaConsulting/STTSFunctions/types"
)

// FailurePolicy 决定内部失败如何呈现给调用方
type FailurePolicy string

const (
	// PolicyLegacy 识别失败返回 200 []；合成失败返回映射后的错误状态与通用文本
	PolicyLegacy FailurePolicy = "legacy"
	// PolicyStrict 所有内部失败返回映射后的错误状态与 JSON 错误体
	PolicyStrict FailurePolicy = "strict"
)

// ParseFailurePolicy 解析配置值，空串视为 legacy
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case "", PolicyLegacy:
		return PolicyLegacy, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", s)
	}
}

// EndpointRecorder 记录入口级指标，由 metrics.Collector 实现
type EndpointRecorder interface {
	RecordGateDecision(endpoint, outcome string)
	RecordPipelineFailure(endpoint, code string)
	RecordTranscriptResult(languageCode string)
}

type nopRecorder struct{}

func (nopRecorder) RecordGateDecision(string, string)    {}
func (nopRecorder) RecordPipelineFailure(string, string) {}
func (nopRecorder) RecordTranscriptResult(string)        {}

// HandlerOptions 两个入口共用的边界配置
type HandlerOptions struct {
	Policy       FailurePolicy
	MaxBodyBytes int64
	Recorder     EndpointRecorder
}

func (o HandlerOptions) withDefaults() HandlerOptions {
	if o.Policy == "" {
		o.Policy = PolicyLegacy
	}
	if o.Recorder == nil {
		o.Recorder = nopRecorder{}
	}
	return o
}

// recordOutcome 记录鉴权结果；请求解析阶段的失败发生在鉴权之前，不计入
func recordOutcome(rec EndpointRecorder, endpoint string, err error, parsed bool) {
	switch types.OutcomeOf(err) {
	case types.OutcomeOK:
		rec.RecordGateDecision(endpoint, string(types.OutcomeOK))
	case types.OutcomeDenied:
		rec.RecordGateDecision(endpoint, string(types.OutcomeDenied))
	default:
		if parsed {
			rec.RecordGateDecision(endpoint, string(types.OutcomeOK))
		}
		rec.RecordPipelineFailure(endpoint, string(types.GetErrorCode(err)))
	}
}
