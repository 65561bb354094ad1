package gate

import (
	"crypto/subtle"

	"github.com/CsabaConsulting/STTSFunctions/types"
)

// DefaultSecret 未配置密钥时的比较值
const DefaultSecret = "***"

// TokenParam 携带共享密钥的参数名
const TokenParam = "token"

// Gate 校验请求携带的 token
type Gate struct {
	secret []byte
}

// NewGate 创建 Gate，secret 为空时回退到 DefaultSecret
func NewGate(secret string) *Gate {
	if secret == "" {
		secret = DefaultSecret
	}
	return &Gate{secret: []byte(secret)}
}

// Authorize 比较请求中的 token（缺省为空串）与密钥，不匹配时返回 DENIED 错误。
// JSON 中的 token 必须是字符串，数字、布尔等其它类型一律拒绝。
func (g *Gate) Authorize(req *InboundRequest) error {
	if v, ok := req.JSON[TokenParam]; ok {
		if _, isString := v.(string); !isString {
			return types.NewError(types.ErrDenied, "token is not a string")
		}
	}
	token := req.Param(TokenParam, "")
	if subtle.ConstantTimeCompare([]byte(token), g.secret) != 1 {
		return types.NewError(types.ErrDenied, "token mismatch")
	}
	return nil
}
