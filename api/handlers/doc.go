// Copyright (c) STTSFunctions Authors.
// Licensed under the MIT License.

/*
Package handlers 提供两个入口的 HTTP 边界层。

# 概述

handlers 包把 net/http 请求交给 transcribe / synthesize Adapter，
并按失败策略（FailurePolicy）把 Adapter 返回的结果映射为 HTTP 响应。
鉴权失败在两个入口都表现为 200 + 空结果；内部失败在日志中以
Error 级别记录一次，与鉴权失败（Info 级别 "request denied"）区分。

# 核心类型

  - TranscribeHandler - 识别入口，成功时返回 JSON 数组
  - SynthesizeHandler - 合成入口，成功时返回音频字节与下载头
  - FailurePolicy     - legacy（默认）或 strict
  - HealthHandler     - 服务健康检查（/health, /healthz, /ready, /version）
  - Response          - 统一 JSON 响应结构（success + data + error + timestamp）
  - ErrorInfo         - 结构化错误信息，含 code、message、retryable 标记

# 主要能力

  - 统一响应格式：WriteSuccess / WriteError / WriteJSON 辅助函数
  - ErrorCode → HTTP 状态码自动映射（4xx/5xx）
  - 可扩展健康检查：RegisterCheck 注册自定义 HealthCheck 实现
*/
package handlers
