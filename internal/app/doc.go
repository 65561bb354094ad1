// Copyright (c) STTSFunctions Authors.
// Licensed under the MIT License.

/*
包 app 负责单个语音入口的进程装配，两个部署入口
（cmd/chirpfunction 与 cmd/ttsfunction）共用同一套引导逻辑。

# 核心类型

  - App：按配置创建 Google Provider、Adapter、Handler、chi 路由
    与 Prometheus Registry，并通过 errgroup 并行运行业务端口与 metrics 端口。
  - CLI：serve、version、health 三个子命令，serve 先加载 .env 再加载配置。

# 日志

NewLogger 支持 json、console 与 gcp 三种格式，gcp 格式输出
severity 与 message 字段，便于 Cloud Logging 解析。
*/
package app
