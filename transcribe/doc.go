// Copyright (c) STTSFunctions Authors.
// Licensed under the MIT License.

/*
Package transcribe 实现语音识别入口的业务流程。

# 概述

Adapter 依次完成：token 校验、project_id / region 参数解析、
gzip 解压原始请求体、一次 chirp 自动语言检测识别，最后把结果
展平为 [transcript, language_code, transcript, language_code, …]。

# 错误语义

Transcribe 总是返回非 nil 的切片；失败时切片为空，错误为 *types.Error：

  - DENIED：token 不匹配，未调用 Provider
  - DECOMPRESSION_FAILED / PAYLOAD_TOO_LARGE：请求体不是合法 gzip 或解压后超限
  - UPSTREAM_* / PROVIDER_UNAVAILABLE / INVALID_REQUEST：Provider 调用失败

HTTP 状态如何映射由 api/handlers 的失败策略决定。
*/
package transcribe
