package transcribe

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/CsabaConsulting/STTSFunctions/types"
)

// Decompress 解压 gzip 负载（支持多成员流）。
// 空负载解压为空音频；limit > 0 时解压结果超过 limit 字节返回 PAYLOAD_TOO_LARGE。
func Decompress(payload []byte, limit int64) ([]byte, error) {
	if len(payload) == 0 {
		return []byte{}, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, types.WrapError(err, types.ErrDecompression, "invalid gzip payload")
	}
	defer zr.Close()

	var r io.Reader = zr
	if limit > 0 {
		r = io.LimitReader(zr, limit+1)
	}

	audio, err := io.ReadAll(r)
	if err != nil {
		return nil, types.WrapError(err, types.ErrDecompression, "failed to decompress payload")
	}
	if limit > 0 && int64(len(audio)) > limit {
		return nil, types.NewError(types.ErrPayloadTooLarge,
			fmt.Sprintf("decompressed audio exceeds %d bytes", limit))
	}
	return audio, nil
}
