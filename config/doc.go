// Package config 提供 STTSFunctions 的配置管理功能。
//
// 配置按以下顺序合并：默认值、YAML 文件、旧版无前缀环境变量
// （TOKEN、PROJECT_ID、REGION、LANGUAGE_CODE、GOOGLE_APPLICATION_CREDENTIALS，
// 仅在字段仍为默认值时生效），最后是带 STTS_ 前缀的环境变量。
package config
