package speech

import (
	"google.golang.org/api/option"
)

// GoogleSTTConfig Google Speech-to-Text v2 配置
type GoogleSTTConfig struct {
	Model            string   `json:"model" yaml:"model"`
	LanguageCodes    []string `json:"language_codes" yaml:"language_codes"`
	EndpointTemplate string   `json:"endpoint_template" yaml:"endpoint_template"`
	// MaxCachedClients 按区域缓存的客户端上限，超出后的区域使用一次性客户端
	MaxCachedClients int `json:"max_cached_clients" yaml:"max_cached_clients"`
}

// GoogleTTSConfig Google Text-to-Speech v1 配置
type GoogleTTSConfig struct {
	// Endpoint 为空时使用 SDK 默认端点
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// DefaultGoogleSTTConfig 返回默认 STT 配置
func DefaultGoogleSTTConfig() GoogleSTTConfig {
	return GoogleSTTConfig{
		Model:            "chirp",
		LanguageCodes:    []string{"auto"},
		EndpointTemplate: "%s-speech.googleapis.com",
		MaxCachedClients: 16,
	}
}

// DefaultGoogleTTSConfig 返回默认 TTS 配置
func DefaultGoogleTTSConfig() GoogleTTSConfig {
	return GoogleTTSConfig{}
}

// CredentialOptions 把凭证文件解析为客户端选项，为空时使用 Application Default Credentials
func CredentialOptions(credentialsFile string) []option.ClientOption {
	if credentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(credentialsFile)}
}
