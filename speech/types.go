package speech

import "context"

// ============================================================
// 语音识别 (STT)
// ============================================================

// RecognizeRequest 一次识别请求
type RecognizeRequest struct {
	ProjectID string `json:"project_id"`
	Region    string `json:"region"`
	Audio     []byte `json:"-"`
}

// Alternative 识别候选
type Alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float32 `json:"confidence,omitempty"`
}

// RecognitionResult 一段识别结果，Alternatives 按 Provider 给出的顺序排列
type RecognitionResult struct {
	Alternatives []Alternative `json:"alternatives"`
	LanguageCode string        `json:"language_code"`
}

// Recognizer 定义语音识别提供者接口
type Recognizer interface {
	// Recognize 对整段音频执行一次识别，结果保持 Provider 顺序
	Recognize(ctx context.Context, req *RecognizeRequest) ([]RecognitionResult, error)

	// Name 返回提供者名称
	Name() string
}

// ============================================================
// 语音合成 (TTS)
// ============================================================

// Gender 声音性别
type Gender string

const (
	GenderNeutral     Gender = "NEUTRAL"
	GenderMale        Gender = "MALE"
	GenderFemale      Gender = "FEMALE"
	GenderUnspecified Gender = ""
)

// AudioEncoding 合成音频编码
type AudioEncoding string

const (
	EncodingOggOpus  AudioEncoding = "OGG_OPUS"
	EncodingMP3      AudioEncoding = "MP3"
	EncodingLinear16 AudioEncoding = "LINEAR16"
)

// SynthesizeRequest 一次合成请求。Text 可以是纯文本或 SSML，本地不做区分
type SynthesizeRequest struct {
	Text         string        `json:"text"`
	LanguageCode string        `json:"language_code"`
	Gender       Gender        `json:"gender"`
	Encoding     AudioEncoding `json:"encoding"`
}

// SynthesizeResponse 合成结果
type SynthesizeResponse struct {
	Audio    []byte        `json:"-"`
	Encoding AudioEncoding `json:"encoding"`
}

// Synthesizer 定义语音合成提供者接口
type Synthesizer interface {
	// Synthesize 执行一次合成调用
	Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error)

	// Name 返回提供者名称
	Name() string
}
