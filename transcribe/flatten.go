package transcribe

import (
	"fmt"

	"github.com/CsabaConsulting/STTSFunctions/speech"
	"github.com/CsabaConsulting/STTSFunctions/types"
)

// Flatten 按 Provider 顺序把每条结果展开为 首选候选文本、语言代码 两个元素，
// 输出长度总是 2*len(results)。任一结果没有候选时整体失败，返回 INTERNAL_ERROR。
func Flatten(results []speech.RecognitionResult) ([]string, error) {
	out := make([]string, 0, 2*len(results))
	for i, r := range results {
		if len(r.Alternatives) == 0 {
			return nil, types.NewError(types.ErrInternalError,
				fmt.Sprintf("recognition result %d has no alternatives", i))
		}
		out = append(out, r.Alternatives[0].Transcript, r.LanguageCode)
	}
	return out, nil
}
