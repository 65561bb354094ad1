package transcribe

import (
	"context"

	"github.com/CsabaConsulting/STTSFunctions/gate"
	"github.com/CsabaConsulting/STTSFunctions/speech"
	"github.com/CsabaConsulting/STTSFunctions/types"
)

// 请求参数名
const (
	ParamProjectID = "project_id"
	ParamRegion    = "region"
)

// Options Adapter 配置
type Options struct {
	// DefaultProjectID 请求未提供 project_id 时使用
	DefaultProjectID string
	// DefaultRegion 请求未提供 region 时使用
	DefaultRegion string
	// MaxDecompressedBytes 解压后音频上限，<= 0 表示不限制
	MaxDecompressedBytes int64
}

// Result 一次成功识别的附带信息，供边界层记录
type Result struct {
	Transcripts []string
	Results     []speech.RecognitionResult
	ProjectID   string
	Region      string
}

// Adapter 语音识别入口
type Adapter struct {
	recognizer speech.Recognizer
	gate       *gate.Gate
	opts       Options
}

// NewAdapter 创建 Adapter
func NewAdapter(recognizer speech.Recognizer, g *gate.Gate, opts Options) *Adapter {
	if opts.DefaultRegion == "" {
		opts.DefaultRegion = "us-central1"
	}
	return &Adapter{
		recognizer: recognizer,
		gate:       g,
		opts:       opts,
	}
}

// Transcribe 返回展平后的识别结果；失败时返回空切片和 *types.Error
func (a *Adapter) Transcribe(ctx context.Context, req *gate.InboundRequest) ([]string, error) {
	res, err := a.Run(ctx, req)
	if err != nil {
		return []string{}, err
	}
	return res.Transcripts, nil
}

// Authorize 只做鉴权，不调用 Provider
func (a *Adapter) Authorize(req *gate.InboundRequest) error {
	return a.gate.Authorize(req)
}

// Run 与 Transcribe 相同，但返回识别的完整上下文
func (a *Adapter) Run(ctx context.Context, req *gate.InboundRequest) (*Result, error) {
	if err := a.gate.Authorize(req); err != nil {
		return nil, err
	}

	projectID := req.Param(ParamProjectID, a.opts.DefaultProjectID)
	region := req.Param(ParamRegion, a.opts.DefaultRegion)

	audio, err := Decompress(req.Body, a.opts.MaxDecompressedBytes)
	if err != nil {
		return nil, err
	}

	results, err := a.recognizer.Recognize(ctx, &speech.RecognizeRequest{
		ProjectID: projectID,
		Region:    region,
		Audio:     audio,
	})
	if err != nil {
		if _, ok := types.AsError(err); !ok {
			err = types.WrapError(err, types.ErrInternalError, "recognition failed").
				WithProvider(a.recognizer.Name())
		}
		return nil, err
	}

	transcripts, err := Flatten(results)
	if err != nil {
		return nil, err
	}

	return &Result{
		Transcripts: transcripts,
		Results:     results,
		ProjectID:   projectID,
		Region:      region,
	}, nil
}
