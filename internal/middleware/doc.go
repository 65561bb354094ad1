// Copyright (c) STTSFunctions Authors.
// Licensed under the MIT License.

/*
包 middleware 提供语音函数 HTTP 服务共用的中间件链。

# 概述

每个中间件都是 func(http.Handler) http.Handler，通过 Chain 从外到内
串联。转写与合成两个入口共用同一条链：panic 恢复、请求 ID、安全头、
访问日志、CORS、按 IP 限流、Prometheus 指标与 OpenTelemetry 追踪。

# 主要能力

  - Recovery：捕获处理器 panic，返回 500 并记录错误日志。
  - RequestID：复用或生成 X-Request-ID，并写入 types.WithRequestID 上下文。
  - RateLimiter：基于 golang.org/x/time/rate 的按 IP 令牌桶限流。
  - Metrics：通过 HTTPRecorder 记录请求时长、状态与收发字节数。
  - OTelTracing：提取上游 trace 上下文并为每个请求创建 Server Span。
*/
package middleware
