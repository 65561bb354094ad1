// =============================================================================
// ttsfunction 入口
// =============================================================================
// 接收 text 与 language_code，调用 Text-to-Speech 合成 OGG_OPUS 音频，
// 以附件形式返回。
//
// 使用方法:
//
//	ttsfunction serve                       # 启动服务
//	ttsfunction serve --config config.yaml  # 指定配置文件
//	ttsfunction version                     # 显示版本信息
//	ttsfunction health                      # 健康检查
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
		Name:     "ttsfunction",
		Endpoint: app.EndpointSynthesize,
		Build:    app.BuildInfo{Version: Version, BuildTime: BuildTime, GitCommit: GitCommit},
	}
	os.Exit(cli.Main(os.Args[1:]))
}
