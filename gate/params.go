package gate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/CsabaConsulting/STTSFunctions/types"
)

// InboundRequest 是解析后的入站请求
type InboundRequest struct {
	// Body 原始请求体（识别入口中为 gzip 音频）
	Body []byte
	// JSON 请求体解析出的对象，非 JSON 请求或解析失败时为 nil
	JSON map[string]any
	// Query 查询参数
	Query url.Values
}

// ParseRequest 读取请求体并提取 JSON 对象与查询参数。
// body 超过 maxBody 字节时返回 PAYLOAD_TOO_LARGE，同时返回只含查询参数的请求，
// 调用方仍可据此做鉴权；maxBody <= 0 表示不限制。
func ParseRequest(r *http.Request, maxBody int64) (*InboundRequest, error) {
	req := &InboundRequest{Query: r.URL.Query()}

	if r.Body != nil {
		var reader io.Reader = r.Body
		if maxBody > 0 {
			reader = io.LimitReader(r.Body, maxBody+1)
		}
		body, err := io.ReadAll(reader)
		if err != nil {
			return nil, types.WrapError(err, types.ErrInvalidRequest, "failed to read request body")
		}
		if maxBody > 0 && int64(len(body)) > maxBody {
			return req, types.NewError(types.ErrPayloadTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", maxBody))
		}
		req.Body = body
	}

	if isJSONContentType(r.Header.Get("Content-Type")) {
		req.JSON = decodeObject(req.Body)
	}

	return req, nil
}

// Param 按 JSON → query → def 的顺序解析参数
func (r *InboundRequest) Param(key, def string) string {
	if r == nil {
		return def
	}
	return Resolve(key, r.JSON, r.Query, def)
}

// Resolve 是所有参数共用的取值规则。
// JSON 中存在该键时使用 JSON 值；否则查询参数中存在该键（即使值为空）时使用其第一个值；
// 都不存在时返回 def。
func Resolve(key string, jsonBody map[string]any, query url.Values, def string) string {
	if v, ok := jsonBody[key]; ok {
		return stringify(v)
	}
	if vals, ok := query[key]; ok {
		if len(vals) == 0 {
			return ""
		}
		return vals[0]
	}
	return def
}

// stringify 字符串原样返回，null 视为空串，其它标量与复合值使用其 JSON 文本
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// decodeObject 静默解析：格式错误或非对象时返回 nil
func decodeObject(body []byte) map[string]any {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil
	}
	return obj
}

func isJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" ||
		(strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json"))
}
