// =============================================================================
// chirpfunction 入口
// =============================================================================
// 接收 gzip 压缩的音频，调用 Speech-to-Text v2 (Chirp) 自动识别语言，
// 返回 [transcript, language_code, ...] 扁平 JSON 数组。
//
// 使用方法:
//
//	chirpfunction serve                       # 启动服务
//	chirpfunction serve --config config.yaml  # 指定配置文件
//	chirpfunction version                     # 显示版本信息
//	chirpfunction health                      # 健康检查
// =============================================================================

package main

import (
	"os"

	"github.com/CsabaConsulting/STTSFunctions/internal/app"
)

// 版本信息（构建时注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cli := &app.CLI{
		Name:     "chirpfunction",
		Endpoint: app.EndpointTranscribe,
		Build:    app.BuildInfo{Version: Version, BuildTime: BuildTime, GitCommit: GitCommit},
	}
	os.Exit(cli.Main(os.Args[1:]))
}
