// Copyright (c) STTSFunctions Authors.
// Licensed under the MIT License.

/*
包 server 提供 HTTP 服务器生命周期管理，支持非阻塞启动、
阻塞运行与优雅关闭。

# 概述

本包通过 Manager 封装 net/http.Server，统一管理监听、服务、
关闭与错误传播流程。业务端口与 metrics 端口各自持有一个 Manager，
由调用方通过 errgroup 并行运行。

# 核心类型

  - Manager：HTTP 服务器管理器，持有 http.Server、net.Listener
    与异步错误通道，提供 Start/Run/Shutdown 等生命周期方法。
  - Config：服务器配置，包含名称、监听地址、读写超时、空闲超时、
    最大请求头大小、优雅关闭超时与 h2c 开关。

# 主要能力

  - 非阻塞启动：Start 在后台 goroutine 中运行服务。
  - 阻塞运行：Run 在 ctx 结束或服务异常时触发优雅关闭。
  - HTTP/2 cleartext：H2C 为 true 时通过 golang.org/x/net/http2/h2c
    包装处理器，适配 Cloud Run 的端到端 HTTP/2。
  - 错误传播：Errors() 返回异步错误通道。
*/
package server
