// =============================================================================
// 📦 STTSFunctions 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("STTS").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 旧版环境变量 → 带前缀的环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 STTSFunctions 的完整配置结构
type Config struct {
	// Server 服务器配置
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Auth 共享密钥配置
	Auth AuthConfig `yaml:"auth" env:"AUTH"`

	// Transcribe 语音识别入口配置
	Transcribe TranscribeConfig `yaml:"transcribe" env:"TRANSCRIBE"`

	// Synthesize 语音合成入口配置
	Synthesize SynthesizeConfig `yaml:"synthesize" env:"SYNTHESIZE"`

	// Google 凭证配置
	Google GoogleConfig `yaml:"google" env:"GOOGLE"`

	// Provider 外部调用的超时与重试
	Provider ProviderConfig `yaml:"provider" env:"PROVIDER"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// HTTP 端口
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// Metrics 端口，0 表示不启动独立的 metrics 服务
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入超时
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// 请求体上限（字节）
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`
	// CORS 允许的来源，为空时拒绝跨域
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	// 每个 IP 的限流速率，0 表示关闭
	RateLimitRPS int `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// 限流突发
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	// 是否启用 HTTP/2 cleartext
	H2C bool `yaml:"h2c" env:"H2C"`
}

// AuthConfig 共享密钥配置
type AuthConfig struct {
	// 与请求参数 token 做精确比较的密钥
	Token string `yaml:"token" env:"TOKEN"`
}

// TranscribeConfig 语音识别配置
type TranscribeConfig struct {
	// 默认 GCP 项目
	ProjectID string `yaml:"project_id" env:"PROJECT_ID"`
	// 默认区域
	Region string `yaml:"region" env:"REGION"`
	// 识别模型
	Model string `yaml:"model" env:"MODEL"`
	// 语言列表，"auto" 表示自动检测
	LanguageCodes []string `yaml:"language_codes" env:"LANGUAGE_CODES"`
	// 区域端点模板，%s 替换为 region
	EndpointTemplate string `yaml:"endpoint_template" env:"ENDPOINT_TEMPLATE"`
	// 解压后音频上限（字节）
	MaxDecompressedBytes int64 `yaml:"max_decompressed_bytes" env:"MAX_DECOMPRESSED_BYTES"`
	// 失败策略: legacy, strict
	FailurePolicy string `yaml:"failure_policy" env:"FAILURE_POLICY"`
}

// SynthesizeConfig 语音合成配置
type SynthesizeConfig struct {
	// 默认语言
	LanguageCode string `yaml:"language_code" env:"LANGUAGE_CODE"`
	// 失败策略: legacy, strict
	FailurePolicy string `yaml:"failure_policy" env:"FAILURE_POLICY"`
}

// GoogleConfig Google Cloud 凭证配置
type GoogleConfig struct {
	// 服务账号 key 文件路径，为空时使用 Application Default Credentials
	CredentialsFile string `yaml:"credentials_file" env:"CREDENTIALS_FILE"`
}

// ProviderConfig 外部 Provider 调用策略
type ProviderConfig struct {
	// 单次调用超时，0 表示不设超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 最大重试次数，0 表示不重试
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
	// 初始退避
	InitialBackoff time.Duration `yaml:"initial_backoff" env:"INITIAL_BACKOFF"`
	// 最大退避
	MaxBackoff time.Duration `yaml:"max_backoff" env:"MAX_BACKOFF"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console, gcp
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	legacyEnv  bool
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "STTS",
		legacyEnv:  true,
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithLegacyEnv 控制是否读取旧版部署使用的无前缀环境变量
func (l *Loader) WithLegacyEnv(enabled bool) *Loader {
	l.legacyEnv = enabled
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 旧版环境变量只填补仍为默认值的字段
	if l.legacyEnv {
		applyLegacyEnv(cfg)
	}

	// 4. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 5. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// legacyAlias 旧版变量到配置字段的映射
type legacyAlias struct {
	env   string
	field func(*Config) *string
}

var legacyAliases = []legacyAlias{
	{"TOKEN", func(c *Config) *string { return &c.Auth.Token }},
	{"PROJECT_ID", func(c *Config) *string { return &c.Transcribe.ProjectID }},
	{"REGION", func(c *Config) *string { return &c.Transcribe.Region }},
	{"LANGUAGE_CODE", func(c *Config) *string { return &c.Synthesize.LanguageCode }},
	{"GOOGLE_APPLICATION_CREDENTIALS", func(c *Config) *string { return &c.Google.CredentialsFile }},
}

// applyLegacyEnv 读取 TOKEN / PROJECT_ID / REGION / LANGUAGE_CODE 等无前缀变量。
// 空值视为未设置，因此 TOKEN="" 时密钥仍是 DefaultToken。
func applyLegacyEnv(cfg *Config) {
	defaults := DefaultConfig()
	for _, alias := range legacyAliases {
		v := os.Getenv(alias.env)
		if v == "" {
			continue
		}
		if field := alias.field(cfg); *field == *alias.field(defaults) {
			*field = v
		}
	}
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// LoadFromEnv 仅从环境变量加载配置
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		errs = append(errs, "invalid metrics port")
	}
	if c.Server.MetricsPort != 0 && c.Server.MetricsPort == c.Server.HTTPPort {
		errs = append(errs, "metrics port must differ from HTTP port")
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, "max_body_bytes must be positive")
	}

	if c.Transcribe.Model == "" {
		errs = append(errs, "transcribe.model must not be empty")
	}
	if len(c.Transcribe.LanguageCodes) == 0 {
		errs = append(errs, "transcribe.language_codes must not be empty")
	}
	if !strings.Contains(c.Transcribe.EndpointTemplate, "%s") {
		errs = append(errs, "transcribe.endpoint_template must contain %s")
	}
	if c.Transcribe.MaxDecompressedBytes <= 0 {
		errs = append(errs, "transcribe.max_decompressed_bytes must be positive")
	}
	if !validFailurePolicy(c.Transcribe.FailurePolicy) {
		errs = append(errs, fmt.Sprintf("unknown transcribe.failure_policy %q", c.Transcribe.FailurePolicy))
	}
	if !validFailurePolicy(c.Synthesize.FailurePolicy) {
		errs = append(errs, fmt.Sprintf("unknown synthesize.failure_policy %q", c.Synthesize.FailurePolicy))
	}

	if c.Provider.Timeout < 0 {
		errs = append(errs, "provider.timeout must not be negative")
	}
	if c.Provider.MaxRetries < 0 {
		errs = append(errs, "provider.max_retries must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func validFailurePolicy(p string) bool {
	return p == FailurePolicyLegacy || p == FailurePolicyStrict
}
