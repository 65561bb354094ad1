package speech

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/CsabaConsulting/STTSFunctions/internal/retry"
	"github.com/CsabaConsulting/STTSFunctions/types"
)

const instrumentationName = "github.com/CsabaConsulting/STTSFunctions/speech"

// CallRecorder 记录 Provider 调用结果，由 metrics.Collector 实现
type CallRecorder interface {
	RecordProviderCall(provider, operation, status string, duration time.Duration)
}

// InvokerOptions Invoker 配置
type InvokerOptions struct {
	// Timeout 单次调用超时，0 表示不设超时
	Timeout time.Duration
	// Retry 重试策略，为空时不重试
	Retry *retry.RetryPolicy
	// Recorder 可选的 Prometheus 记录器
	Recorder CallRecorder
	// TracerProvider 为空时使用全局 provider
	TracerProvider trace.TracerProvider
	// MeterProvider 为空时使用全局 provider
	MeterProvider metric.MeterProvider
}

// Invoker 包装外部调用：超时、重试、追踪、指标与错误归类
type Invoker struct {
	timeout  time.Duration
	retryer  retry.Retryer
	recorder CallRecorder
	tracer   trace.Tracer
	calls    metric.Int64Counter
	duration metric.Float64Histogram
	logger   *zap.Logger
}

// NewInvoker 创建 Invoker
func NewInvoker(opts InvokerOptions, logger *zap.Logger) *Invoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "speech_invoker"))

	policy := retry.DefaultRetryPolicy()
	if opts.Retry != nil {
		p := *opts.Retry
		policy = &p
	}
	if policy.ShouldRetry == nil {
		policy.ShouldRetry = types.IsRetryable
	}

	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	mp := opts.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	calls, err := meter.Int64Counter("speech.provider.calls",
		metric.WithDescription("Total number of speech provider calls"),
		metric.WithUnit("{call}"))
	if err != nil {
		logger.Warn("failed to create provider call counter", zap.Error(err))
	}
	duration, err := meter.Float64Histogram("speech.provider.duration",
		metric.WithDescription("Speech provider call duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		logger.Warn("failed to create provider duration histogram", zap.Error(err))
	}

	return &Invoker{
		timeout:  opts.Timeout,
		retryer:  retry.NewBackoffRetryer(policy, logger),
		recorder: opts.Recorder,
		tracer:   tp.Tracer(instrumentationName),
		calls:    calls,
		duration: duration,
		logger:   logger,
	}
}

// Invoke 执行 fn。返回的错误总是 *types.Error（或包装了它的重试错误）
func (i *Invoker) Invoke(ctx context.Context, provider, operation string, fn func(ctx context.Context) error) error {
	ctx, span := i.tracer.Start(ctx, provider+"."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("speech.provider", provider),
			attribute.String("speech.operation", operation),
		))
	defer span.End()

	start := time.Now()
	attempts := 0
	err := i.retryer.Do(ctx, func(ctx context.Context) error {
		attempts++
		callCtx := ctx
		if i.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, i.timeout)
			defer cancel()
		}
		return classifyError(provider, fn(callCtx))
	})
	elapsed := time.Since(start)

	statusLabel := "ok"
	if err != nil {
		statusLabel = string(types.GetErrorCode(err))
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, statusLabel)
	} else {
		span.SetStatus(otelcodes.Ok, "")
	}
	span.SetAttributes(attribute.Int("speech.attempts", attempts))

	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
		attribute.String("status", statusLabel),
	)
	if i.calls != nil {
		i.calls.Add(ctx, 1, attrs)
	}
	if i.duration != nil {
		i.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
	if i.recorder != nil {
		i.recorder.RecordProviderCall(provider, operation, statusLabel, elapsed)
	}

	if err != nil {
		i.logger.Debug("provider call failed",
			zap.String("provider", provider),
			zap.String("operation", operation),
			zap.Int("attempts", attempts),
			zap.Duration("duration", elapsed),
			zap.Error(err))
	}
	return err
}
