// Copyright (c) STTSFunctions Authors.
// Licensed under the MIT License.

/*
包 speech 是两个入口与外部语音服务之间的边界层。

# 概述

入口只依赖本包定义的 Recognizer 与 Synthesizer 接口；Google Cloud
实现（Speech-to-Text v2 的 chirp 模型与 Text-to-Speech v1）在其后完成
请求构造、区域端点选择和响应转换。每次外部调用都经过 Invoker，
由它施加单次超时、有界重试、OpenTelemetry 追踪与 Prometheus 计数。

# 核心接口

  - Recognizer：Recognize(ctx, *RecognizeRequest) → []RecognitionResult
  - Synthesizer：Synthesize(ctx, *SynthesizeRequest) → *SynthesizeResponse
  - Invoker：包装一次外部调用，并把 gRPC 错误归类为 *types.Error

# 主要能力

  - GoogleRecognizer：按区域懒加载并缓存客户端（{region}-speech.googleapis.com），
    识别器资源名为 projects/{project}/locations/{region}/recognizers/_。
  - GoogleSynthesizer：NEUTRAL 声音与固定编码的合成请求。
  - CredentialOptions：将凭证文件路径解析为客户端选项，不修改进程环境变量。
*/
package speech
