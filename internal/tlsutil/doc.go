// Package tlsutil 提供出站 HTTP 客户端的集中式 TLS 配置
// （TLS 1.2+，仅 AEAD 密码套件），用于 health 子命令探测 HTTPS 部署地址。
package tlsutil
