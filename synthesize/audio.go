package synthesize

import (
	"fmt"

	"github.com/CsabaConsulting/STTSFunctions/speech"
)

// AudioResponse 合成结果与响应头
type AudioResponse struct {
	Audio              []byte
	ContentType        string
	ContentDisposition string
}

// Headers 返回需要写入 HTTP 响应的头
func (r *AudioResponse) Headers() map[string]string {
	return map[string]string{
		"Content-Type":        r.ContentType,
		"Content-Disposition": r.ContentDisposition,
	}
}

type container struct {
	contentType string
	extension   string
}

var containers = map[speech.AudioEncoding]container{
	speech.EncodingOggOpus:  {contentType: "audio/ogg", extension: "opus"},
	speech.EncodingMP3:      {contentType: "audio/mpeg", extension: "mp3"},
	speech.EncodingLinear16: {contentType: "audio/wav", extension: "wav"},
}

func newAudioResponse(audio []byte, encoding speech.AudioEncoding) *AudioResponse {
	c, ok := containers[encoding]
	if !ok {
		c = container{contentType: "application/octet-stream", extension: "bin"}
	}
	return &AudioResponse{
		Audio:              audio,
		ContentType:        c.contentType,
		ContentDisposition: fmt.Sprintf("attachment; filename=response.%s", c.extension),
	}
}
