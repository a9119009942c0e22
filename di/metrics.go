package di

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder 记录注册表活动。
// 使用 NewMetricsRecorder 接入 OTel 指标，关闭时使用 NoopMetrics{}。
type MetricsRecorder interface {
	// RecordRegistration 记录一次注册
	RecordRegistration(ctx context.Context, key ServiceKey, scope Scope)

	// RecordResolution 记录一次解析及是否命中
	RecordResolution(ctx context.Context, key ServiceKey, scope Scope, hit bool)

	// RecordCleanup 记录一次清理，kind 取值 "all"、"transient"、"services" 或 "reset"
	RecordCleanup(ctx context.Context, kind string)
}

// NoopMetrics 不做任何记录
type NoopMetrics struct{}

func (NoopMetrics) RecordRegistration(context.Context, ServiceKey, Scope)      {}
func (NoopMetrics) RecordResolution(context.Context, ServiceKey, Scope, bool) {}
func (NoopMetrics) RecordCleanup(context.Context, string)                    {}

const meterName = "github.com/gocrud/locator/di"

// otelMetrics 基于 OpenTelemetry 的 MetricsRecorder 实现
type otelMetrics struct {
	registrations metric.Int64Counter
	resolutions   metric.Int64Counter
	misses        metric.Int64Counter
	cleanups      metric.Int64Counter
}

var (
	defaultMetrics     MetricsRecorder
	defaultMetricsOnce sync.Once
)

// NewMetricsRecorder 在给定 meter 上创建 OTel 计数器
func NewMetricsRecorder(meter metric.Meter) (MetricsRecorder, error) {
	registrations, err := meter.Int64Counter("locator.registrations",
		metric.WithDescription("Number of service registrations"),
	)
	if err != nil {
		return nil, err
	}

	resolutions, err := meter.Int64Counter("locator.resolutions",
		metric.WithDescription("Number of service resolutions"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter("locator.resolution_misses",
		metric.WithDescription("Number of resolutions that found no compatible value"),
	)
	if err != nil {
		return nil, err
	}

	cleanups, err := meter.Int64Counter("locator.cleanups",
		metric.WithDescription("Number of registry cleanups"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		registrations: registrations,
		resolutions:   resolutions,
		misses:        misses,
		cleanups:      cleanups,
	}, nil
}

// NewDefaultMetricsRecorder 返回基于全局 OTel MeterProvider 的记录器。
// 首次调用前需通过 otel.SetMeterProvider 配置 provider，计数器创建失败时退回 NoopMetrics。
func NewDefaultMetricsRecorder() MetricsRecorder {
	defaultMetricsOnce.Do(func() {
		m, err := NewMetricsRecorder(otel.Meter(meterName))
		if err != nil {
			defaultMetrics = NoopMetrics{}
			return
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

func keyAttributes(key ServiceKey, scope Scope) []attribute.KeyValue {
	typeName := "<nil>"
	if key.Type != nil {
		typeName = key.Type.String()
	}
	return []attribute.KeyValue{
		attribute.String("service.type", typeName),
		attribute.String("service.name", key.Name),
		attribute.String("scope", scope.String()),
	}
}

func (m *otelMetrics) RecordRegistration(ctx context.Context, key ServiceKey, scope Scope) {
	m.registrations.Add(ctx, 1, metric.WithAttributes(keyAttributes(key, scope)...))
}

func (m *otelMetrics) RecordResolution(ctx context.Context, key ServiceKey, scope Scope, hit bool) {
	attrs := keyAttributes(key, scope)
	m.resolutions.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.Bool("hit", hit))...))
	if !hit {
		m.misses.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func (m *otelMetrics) RecordCleanup(ctx context.Context, kind string) {
	m.cleanups.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
