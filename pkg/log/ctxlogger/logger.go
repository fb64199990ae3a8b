// Package ctxlogger derives loggers from the correlation and trace
// metadata carried on a context.
package ctxlogger

import (
	"context"
	"sync/atomic"

	"github.com/smallbiznis/orderpulse/pkg/telemetry/correlation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type topicKey struct{}

var serviceName atomic.Pointer[string]

// SetServiceName configures the service name added to every log entry.
func SetServiceName(name string) {
	serviceName.Store(&name)
}

// ContextWithTopic annotates the context with the webhook topic being handled.
func ContextWithTopic(ctx context.Context, topic string) context.Context {
	if topic == "" {
		return ctx
	}
	return context.WithValue(ctx, topicKey{}, topic)
}

func TopicFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	topic, _ := ctx.Value(topicKey{}).(string)
	return topic
}

// FromContext returns the global logger enriched from ctx.
func FromContext(ctx context.Context) *zap.Logger {
	return WithContext(ctx, zap.L())
}

// WithContext enriches base with correlation, trace, service and topic fields.
func WithContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	if ctx == nil {
		return base
	}

	fields := make([]zap.Field, 0, 5)
	fields = append(fields, ExtractCorrelation(ctx))
	fields = append(fields, ExtractTrace(ctx)...)

	name := "unknown"
	if namePtr := serviceName.Load(); namePtr != nil {
		name = *namePtr
	}
	fields = append(fields, zap.String("service_name", name))

	if topic := TopicFromContext(ctx); topic != "" {
		fields = append(fields, zap.String("topic", topic))
	}
	return base.With(fields...)
}

// ExtractCorrelation returns the correlation id field, minting one when absent.
func ExtractCorrelation(ctx context.Context) zap.Field {
	cid := correlation.ExtractCorrelationID(ctx)
	if cid == "" {
		_, cid = correlation.EnsureCorrelationID(ctx)
	}
	return zap.String("correlation_id", cid)
}

// ExtractTrace returns trace and span id fields, empty when ctx has no span.
func ExtractTrace(ctx context.Context) []zap.Field {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return []zap.Field{zap.String("trace_id", ""), zap.String("span_id", "")}
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
