// Copyright (c) STTSFunctions Authors.
// Licensed under the MIT License.

/*
Package types 提供 STTSFunctions 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 gate、transcribe、
synthesize、speech 与 api 等上层模块提供统一的错误契约与上下文传播。

# 核心类型

  - Error / ErrorCode - 结构化错误体系，含 HTTP 状态码、Retryable、Provider 标记
  - Outcome           - 请求结果分类：ok / denied / internal_error

# 主要能力

  - 统一结果模型：两个适配器都返回 (value, error)，error 为 *Error，
    由 HTTP 边界层决定状态码映射
  - 错误工具链：AsError / IsDenied / IsRetryable / GetErrorCode / OutcomeOf
  - Context 传播：WithRequestID / RequestID
*/
package types
