package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/CsabaConsulting/STTSFunctions/api/handlers"
	"github.com/CsabaConsulting/STTSFunctions/config"
	"github.com/CsabaConsulting/STTSFunctions/gate"
	"github.com/CsabaConsulting/STTSFunctions/internal/metrics"
	"github.com/CsabaConsulting/STTSFunctions/internal/middleware"
	"github.com/CsabaConsulting/STTSFunctions/internal/retry"
	"github.com/CsabaConsulting/STTSFunctions/internal/server"
	"github.com/CsabaConsulting/STTSFunctions/internal/telemetry"
	"github.com/CsabaConsulting/STTSFunctions/speech"
	"github.com/CsabaConsulting/STTSFunctions/synthesize"
	"github.com/CsabaConsulting/STTSFunctions/transcribe"
)

// MetricsNamespace Prometheus 指标命名空间
const MetricsNamespace = "stts"

// Endpoint 进程承载的入口
type Endpoint string

const (
	EndpointTranscribe Endpoint = "transcribe"
	EndpointSynthesize Endpoint = "synthesize"
)

// BuildInfo 构建时注入的版本信息
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// Option 自定义 App 依赖，主要用于测试替换 Provider
type Option func(*App)

// WithRecognizer 使用给定的识别器代替 Google Speech-to-Text
func WithRecognizer(r speech.Recognizer) Option {
	return func(a *App) { a.recognizer = r }
}

// WithSynthesizer 使用给定的合成器代替 Google Text-to-Speech
func WithSynthesizer(s speech.Synthesizer) Option {
	return func(a *App) { a.synthesizer = s }
}

// WithRegistry 指定 Prometheus Registry
func WithRegistry(reg *prometheus.Registry) Option {
	return func(a *App) { a.registry = reg }
}

// WithTelemetry 指定 OTel Provider
func WithTelemetry(p *telemetry.Providers) Option {
	return func(a *App) { a.telemetry = p }
}

// App 单个入口的进程装配：配置、Provider、Adapter、Handler 与服务器
type App struct {
	cfg      *config.Config
	endpoint Endpoint
	build    BuildInfo
	logger   *zap.Logger

	registry  *prometheus.Registry
	collector *metrics.Collector
	telemetry *telemetry.Providers

	recognizer  speech.Recognizer
	synthesizer speech.Synthesizer
	closers     []func() error

	health          *handlers.HealthHandler
	endpointHandler http.Handler

	// 限流清理协程的生命周期
	bgCtx    context.Context
	bgCancel context.CancelFunc

	closeOnce sync.Once
}

// New 按配置装配一个入口
func New(cfg *config.Config, endpoint Endpoint, build BuildInfo, logger *zap.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if endpoint != EndpointTranscribe && endpoint != EndpointSynthesize {
		return nil, fmt.Errorf("unknown endpoint %q", endpoint)
	}

	a := &App{
		cfg:      cfg,
		endpoint: endpoint,
		build:    build,
		logger:   logger.With(zap.String("endpoint", string(endpoint))),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	a.collector = metrics.NewCollectorWithRegistry(MetricsNamespace, a.registry, a.logger)
	a.bgCtx, a.bgCancel = context.WithCancel(context.Background())

	if err := a.initHandlers(); err != nil {
		a.bgCancel()
		return nil, err
	}
	return a, nil
}

// initHandlers 创建 Provider、Adapter 与 HTTP Handler
func (a *App) initHandlers() error {
	invoker := speech.NewInvoker(speech.InvokerOptions{
		Timeout: a.cfg.Provider.Timeout,
		Retry: &retry.RetryPolicy{
			MaxRetries:   a.cfg.Provider.MaxRetries,
			InitialDelay: a.cfg.Provider.InitialBackoff,
			MaxDelay:     a.cfg.Provider.MaxBackoff,
			Multiplier:   2.0,
			Jitter:       true,
		},
		Recorder:       a.collector,
		TracerProvider: a.telemetry.TracerProvider(),
		MeterProvider:  a.telemetry.MeterProvider(),
	}, a.logger)
	credsFile := a.cfg.Google.ResolveCredentialsFile()
	creds := speech.CredentialOptions(credsFile)
	g := gate.NewGate(a.cfg.Auth.Token)

	hopts := handlers.HandlerOptions{
		MaxBodyBytes: a.cfg.Server.MaxBodyBytes,
		Recorder:     a.collector,
	}

	switch a.endpoint {
	case EndpointTranscribe:
		policy, err := handlers.ParseFailurePolicy(a.cfg.Transcribe.FailurePolicy)
		if err != nil {
			return err
		}
		hopts.Policy = policy

		if a.recognizer == nil {
			rec := speech.NewGoogleRecognizer(speech.GoogleSTTConfig{
				Model:            a.cfg.Transcribe.Model,
				LanguageCodes:    a.cfg.Transcribe.LanguageCodes,
				EndpointTemplate: a.cfg.Transcribe.EndpointTemplate,
			}, invoker, a.logger, creds...)
			a.recognizer = rec
			a.closers = append(a.closers, rec.Close)
		}
		adapter := transcribe.NewAdapter(a.recognizer, g, transcribe.Options{
			DefaultProjectID:     a.cfg.Transcribe.ProjectID,
			DefaultRegion:        a.cfg.Transcribe.Region,
			MaxDecompressedBytes: a.cfg.Transcribe.MaxDecompressedBytes,
		})
		a.endpointHandler = handlers.NewTranscribeHandler(adapter, hopts, a.logger)

	case EndpointSynthesize:
		policy, err := handlers.ParseFailurePolicy(a.cfg.Synthesize.FailurePolicy)
		if err != nil {
			return err
		}
		hopts.Policy = policy

		if a.synthesizer == nil {
			syn := speech.NewGoogleSynthesizer(speech.DefaultGoogleTTSConfig(), invoker, a.logger, creds...)
			a.synthesizer = syn
			a.closers = append(a.closers, syn.Close)
		}
		opts := synthesize.DefaultOptions()
		opts.DefaultLanguageCode = a.cfg.Synthesize.LanguageCode
		adapter := synthesize.NewAdapter(a.synthesizer, g, opts)
		a.endpointHandler = handlers.NewSynthesizeHandler(adapter, hopts, a.logger)
	}

	a.health = handlers.NewHealthHandler(a.build.Version, a.logger)
	a.health.RegisterCheck(handlers.NewCredentialsFileCheck(credsFile))

	a.logger.Info("handlers initialized",
		zap.String("failure_policy", string(hopts.Policy)),
		zap.Bool("custom_credentials", len(creds) > 0),
	)
	return nil
}

// Handler 返回完整路由：健康检查与版本端点之外的任意路径都交给入口
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recovery(a.logger),
		middleware.RequestID(),
		middleware.SecurityHeaders(),
		middleware.RequestLogger(a.logger),
		middleware.Metrics(a.collector),
		middleware.OTelTracing(a.telemetry.TracerProvider()),
		middleware.CORS(a.cfg.Server.CORSAllowedOrigins),
		middleware.RateLimiter(a.bgCtx, float64(a.cfg.Server.RateLimitRPS), a.cfg.Server.RateLimitBurst, a.logger),
	)

	r.Get("/health", a.health.HandleHealth)
	r.Get("/healthz", a.health.HandleHealthz)
	r.Get("/ready", a.health.HandleReady)
	r.Get("/readyz", a.health.HandleReady)
	r.Get("/version", a.health.HandleVersion(a.build.BuildTime, a.build.GitCommit))
	// 与 Cloud Functions 一致，入口不区分路径
	r.Handle("/", a.endpointHandler)
	r.Handle("/*", a.endpointHandler)

	return r
}

// FunctionHandler 返回不依赖路径的入口处理器，供 Cloud Functions 框架注册
func (a *App) FunctionHandler() http.Handler {
	return middleware.Chain(a.endpointHandler,
		middleware.Recovery(a.logger),
		middleware.RequestID(),
		middleware.RequestLogger(a.logger),
		middleware.Metrics(a.collector),
		middleware.OTelTracing(a.telemetry.TracerProvider()),
	)
}

// MetricsHandler 暴露本入口的 Prometheus 指标
func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry})
}

// Run 并行运行业务端口与 metrics 端口，直到 ctx 结束
func (a *App) Run(ctx context.Context) error {
	srv := a.cfg.Server

	httpManager := server.NewManager(a.Handler(), server.Config{
		Name:            string(a.endpoint),
		Addr:            fmt.Sprintf(":%d", srv.HTTPPort),
		ReadTimeout:     srv.ReadTimeout,
		WriteTimeout:    srv.WriteTimeout,
		IdleTimeout:     2 * srv.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: srv.ShutdownTimeout,
		H2C:             srv.H2C,
	}, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpManager.Run(gctx) })

	if srv.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.MetricsHandler())
		metricsManager := server.NewManager(mux, server.Config{
			Name:            "metrics",
			Addr:            fmt.Sprintf(":%d", srv.MetricsPort),
			ReadTimeout:     srv.ReadTimeout,
			WriteTimeout:    srv.ReadTimeout,
			ShutdownTimeout: srv.ShutdownTimeout,
		}, a.logger)
		g.Go(func() error { return metricsManager.Run(gctx) })
	}

	a.logger.Info("servers started",
		zap.Int("http_port", srv.HTTPPort),
		zap.Int("metrics_port", srv.MetricsPort),
		zap.String("version", a.build.Version),
	)
	return g.Wait()
}

// Close 释放 Provider 客户端与后台协程
func (a *App) Close(ctx context.Context) error {
	var errs []error
	a.closeOnce.Do(func() {
		a.bgCancel()
		for _, c := range a.closers {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := a.telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}
