package synthesize

import (
	"context"

	"github.com/CsabaConsulting/STTSFunctions/gate"
	"github.com/CsabaConsulting/STTSFunctions/speech"
	"github.com/CsabaConsulting/STTSFunctions/types"
)

// 请求参数名
const (
	ParamText         = "text"
	ParamLanguageCode = "language_code"
)

// Options Adapter 配置
type Options struct {
	// DefaultLanguageCode 请求未提供 language_code 时使用
	DefaultLanguageCode string
	// Encoding 请求的音频编码
	Encoding speech.AudioEncoding
	// Gender 声音性别
	Gender speech.Gender
}

// DefaultOptions 返回 en-US、OGG_OPUS、NEUTRAL
func DefaultOptions() Options {
	return Options{
		DefaultLanguageCode: "en-US",
		Encoding:            speech.EncodingOggOpus,
		Gender:              speech.GenderNeutral,
	}
}

// Adapter 语音合成入口
type Adapter struct {
	synthesizer speech.Synthesizer
	gate        *gate.Gate
	opts        Options
}

// NewAdapter 创建 Adapter，未设置的选项取 DefaultOptions 的值
func NewAdapter(synthesizer speech.Synthesizer, g *gate.Gate, opts Options) *Adapter {
	defaults := DefaultOptions()
	if opts.DefaultLanguageCode == "" {
		opts.DefaultLanguageCode = defaults.DefaultLanguageCode
	}
	if opts.Encoding == "" {
		opts.Encoding = defaults.Encoding
	}
	if opts.Gender == "" {
		opts.Gender = defaults.Gender
	}
	return &Adapter{
		synthesizer: synthesizer,
		gate:        g,
		opts:        opts,
	}
}

// Authorize 只做鉴权，不调用 Provider
func (a *Adapter) Authorize(req *gate.InboundRequest) error {
	return a.gate.Authorize(req)
}

// Synthesize 执行一次合成；失败时返回 nil 和 *types.Error
func (a *Adapter) Synthesize(ctx context.Context, req *gate.InboundRequest) (*AudioResponse, error) {
	if err := a.gate.Authorize(req); err != nil {
		return nil, err
	}

	sreq := &speech.SynthesizeRequest{
		Text:         req.Param(ParamText, ""),
		LanguageCode: req.Param(ParamLanguageCode, a.opts.DefaultLanguageCode),
		Gender:       a.opts.Gender,
		Encoding:     a.opts.Encoding,
	}

	resp, err := a.synthesizer.Synthesize(ctx, sreq)
	if err != nil {
		if _, ok := types.AsError(err); !ok {
			err = types.WrapError(err, types.ErrInternalError, "synthesis failed").
				WithProvider(a.synthesizer.Name())
		}
		return nil, err
	}

	return newAudioResponse(resp.Audio, a.opts.Encoding), nil
}
