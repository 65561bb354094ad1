// Copyright (c) STTSFunctions Authors.
// Licensed under the MIT License.

/*
Package gate 提供两个入口共享的请求解析与共享密钥校验。

# 概述

每个入口都按同一规则读取参数：JSON 请求体中的同名键优先，
其次是查询参数，最后是调用方提供的默认值。token 参数与进程级
配置的密钥做精确比较，不匹配时拒绝请求，且不触发任何外部调用。

# 核心类型

  - InboundRequest：一次请求的原始 body、JSON 对象和查询参数
  - Gate：持有密钥，Authorize 返回 nil 或 DENIED 错误

# 主要能力

  - ParseRequest：读取受限大小的 body，仅在 JSON Content-Type 下解析 JSON 对象
  - Resolve：JSON → query → 默认值 的统一取值函数
  - Gate.Authorize：常量时间的 token 比较
*/
package gate
