// Package tracing OpenTelemetry链路追踪
//
// 每个HTTP请求在中间件中创建根Span，借出/归还用例在其下创建子Span，
// GORM查询在同一个ctx中执行。Span通过OTLP gRPC导出到Collector（Jaeger/Tempo）。
// 日志中的trace_id/span_id由pkg/logger从ctx中提取。
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName 本服务使用的Tracer名称
const TracerName = "github.com/xiebiao/library"

// Config 追踪配置
type Config struct {
	ServiceName string
	Endpoint    string  // OTLP gRPC端点，如localhost:4317
	SampleRatio float64 // 采样率[0,1]，1表示全部采样
	Insecure    bool    // 禁用TLS（本地Collector）
}

// ShutdownFunc 程序退出前调用，刷新剩余Span
type ShutdownFunc func(context.Context) error

// Init 初始化全局TracerProvider
//
// 示例：
//
//	shutdown, err := tracing.Init(ctx, tracing.Config{
//	    ServiceName: "library-api",
//	    Endpoint:    "localhost:4317",
//	    SampleRatio: 1,
//	    Insecure:    true,
//	})
//	if err != nil {
//	    return err
//	}
//	defer shutdown(context.Background())
func Init(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	// 1. 创建OTLP gRPC Exporter
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exporter, err := otlptracegrpc.New(dialCtx, opts...)
	if err != nil {
		return nil, fmt.Errorf("创建OTLP exporter失败: %w", err)
	}

	// 2. 创建Resource并安装Provider
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("创建资源属性失败: %w", err)
	}
	tp := NewProvider(cfg.SampleRatio, sdktrace.WithBatcher(exporter), sdktrace.WithResource(res))
	Install(tp)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

// NewProvider 按采样率创建TracerProvider
// 父Span已采样时子Span跟随父Span，根Span按TraceID比例采样
func NewProvider(sampleRatio float64, opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))
	opts = append([]sdktrace.TracerProviderOption{sdktrace.WithSampler(sampler)}, opts...)
	return sdktrace.NewTracerProvider(opts...)
}

// Install 设置全局TracerProvider与W3C传播器
func Install(tp trace.TracerProvider) {
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// StartSpan 使用本服务的Tracer创建Span
// 必须用返回的ctx调用下游，否则无法形成父子关系
func StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, spanName, opts...)
}

// End 结束Span；err非nil时记录错误并标记状态
//
//	ctx, span := tracing.StartSpan(ctx, "loan.Checkout")
//	defer func() { tracing.End(span, err) }()
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// ExtractTraceID 从ctx提取TraceID，没有有效Span时返回空串
func ExtractTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// ExtractSpanID 从ctx提取SpanID
func ExtractSpanID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.SpanID().String()
}
