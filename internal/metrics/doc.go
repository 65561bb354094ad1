// 版权所有 2024 STTSFunctions Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖
HTTP、语音 Provider 调用与请求鉴权结果三个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，默认使用 promauto
注册到全局 Registry，也可通过 NewCollectorWithRegistry 指定 Registry。
所有指标按 namespace 隔离。

# 核心类型

  - Collector：指标收集器，持有 Counter 与 Histogram 向量指标。

# 主要能力

  - HTTP 指标：请求总数、请求耗时、请求/响应体大小，
    按 method/path/status 分组，状态码归类为 2xx/3xx/4xx/5xx。
  - Provider 指标：调用总数与耗时，按 provider/operation/status 分组。
  - 入口指标：鉴权结果（ok/denied）、管道失败按错误码计数、
    识别结果条数按语言计数。
*/
package metrics
