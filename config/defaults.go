// =============================================================================
// 📦 STTSFunctions 默认配置
// =============================================================================
package config

import (
	"os"
	"time"
)

// 失败策略
const (
	// FailurePolicyLegacy 保留旧版行为：识别失败返回 200 []，合成失败返回错误状态
	FailurePolicyLegacy = "legacy"
	// FailurePolicyStrict 所有内部错误都返回错误状态和 JSON 错误体
	FailurePolicyStrict = "strict"
)

// DefaultToken 未配置时使用的占位密钥
const DefaultToken = "***"

// DefaultCredentialsFile 部署包中约定的服务账号 key 文件，相对于工作目录
const DefaultCredentialsFile = "key.json"

// ResolveCredentialsFile 返回实际使用的凭证文件。
// 显式配置优先；否则工作目录中存在 key.json 时使用它；都没有时返回空串，由 ADC 接管。
func (g GoogleConfig) ResolveCredentialsFile() string {
	if g.CredentialsFile != "" {
		return g.CredentialsFile
	}
	if info, err := os.Stat(DefaultCredentialsFile); err == nil && !info.IsDir() {
		return DefaultCredentialsFile
	}
	return ""
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:     DefaultServerConfig(),
		Auth:       DefaultAuthConfig(),
		Transcribe: DefaultTranscribeConfig(),
		Synthesize: DefaultSynthesizeConfig(),
		Google:     GoogleConfig{},
		Provider:   DefaultProviderConfig(),
		Log:        DefaultLogConfig(),
		Telemetry:  DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:           8080,
		MetricsPort:        9091,
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       3 * time.Minute,
		ShutdownTimeout:    15 * time.Second,
		MaxBodyBytes:       32 << 20,
		CORSAllowedOrigins: nil,
		RateLimitRPS:       0,
		RateLimitBurst:     20,
		H2C:                false,
	}
}

// DefaultAuthConfig 返回默认密钥配置
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{Token: DefaultToken}
}

// DefaultTranscribeConfig 返回默认识别配置
func DefaultTranscribeConfig() TranscribeConfig {
	return TranscribeConfig{
		ProjectID:            "duet-ai-roadshow-415022",
		Region:               "us-central1",
		Model:                "chirp",
		LanguageCodes:        []string{"auto"},
		EndpointTemplate:     "%s-speech.googleapis.com",
		MaxDecompressedBytes: 64 << 20,
		FailurePolicy:        FailurePolicyLegacy,
	}
}

// DefaultSynthesizeConfig 返回默认合成配置
func DefaultSynthesizeConfig() SynthesizeConfig {
	return SynthesizeConfig{
		LanguageCode:  "en-US",
		FailurePolicy: FailurePolicyLegacy,
	}
}

// DefaultProviderConfig 返回默认 Provider 调用策略
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout:        2 * time.Minute,
		MaxRetries:     0,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "gcp",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "stts-functions",
		SampleRate:   0.1,
	}
}
