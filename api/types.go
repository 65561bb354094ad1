package api

import (
	"fmt"
	"net/url"
)

// =============================================================================
// 请求参数
// =============================================================================

// TranscribeParams 识别入口参数，可作为 JSON 请求体或查询串发送
type TranscribeParams struct {
	Token     string `json:"token"`
	ProjectID string `json:"project_id,omitempty"`
	Region    string `json:"region,omitempty"`
}

// Query 编码为查询串，空字段省略
func (p TranscribeParams) Query() url.Values {
	q := url.Values{}
	q.Set("token", p.Token)
	setIfNotEmpty(q, "project_id", p.ProjectID)
	setIfNotEmpty(q, "region", p.Region)
	return q
}

// SynthesizeParams 合成入口参数
type SynthesizeParams struct {
	Token        string `json:"token"`
	Text         string `json:"text,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Query 编码为查询串，空字段省略
func (p SynthesizeParams) Query() url.Values {
	q := url.Values{}
	q.Set("token", p.Token)
	setIfNotEmpty(q, "text", p.Text)
	setIfNotEmpty(q, "language_code", p.LanguageCode)
	return q
}

func setIfNotEmpty(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

// =============================================================================
// 识别响应
// =============================================================================

// TranscriptPair 识别响应中的一对 (文本, 语言)
type TranscriptPair struct {
	Transcript   string `json:"transcript"`
	LanguageCode string `json:"language_code"`
}

// PairTranscripts 把展平的识别响应还原为成对结构
func PairTranscripts(flat []string) ([]TranscriptPair, error) {
	if len(flat)%2 != 0 {
		return nil, fmt.Errorf("transcript response has odd length %d", len(flat))
	}
	pairs := make([]TranscriptPair, 0, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		pairs = append(pairs, TranscriptPair{Transcript: flat[i], LanguageCode: flat[i+1]})
	}
	return pairs, nil
}
