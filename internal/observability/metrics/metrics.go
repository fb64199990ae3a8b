package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes the pipeline's counters.
type Metrics struct {
	events          metric.Int64Counter
	classifications metric.Int64Counter
	deliveries      metric.Int64Counter
	ingest          metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}
	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}
	return provider, nil
}

// New creates the counters on the given provider.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "orderpulse"
	}
	meter := provider.Meter(name)

	events, err := meter.Int64Counter("orderpulse_events_total",
		metric.WithDescription("Inbound order events by outcome."))
	if err != nil {
		return nil, err
	}
	classifications, err := meter.Int64Counter("orderpulse_classifications_total",
		metric.WithDescription("Customer classifications by type and source."))
	if err != nil {
		return nil, err
	}
	deliveries, err := meter.Int64Counter("orderpulse_deliveries_total",
		metric.WithDescription("Insight deliveries by status and result."))
	if err != nil {
		return nil, err
	}
	ingest, err := meter.Int64Counter("orderpulse_ingest_total",
		metric.WithDescription("Ingestion requests by route and result."))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		events:          events,
		classifications: classifications,
		deliveries:      deliveries,
		ingest:          ingest,
	}, nil
}

// RecordEvent counts one handled event; outcome is ignored, rejected, failed or succeeded.
func (m *Metrics) RecordEvent(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.events.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordClassification(ctx context.Context, customerType, source string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("customer_type", strings.TrimSpace(customerType)),
		attribute.String("source", strings.TrimSpace(source)),
	)
	m.classifications.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordDelivery(ctx context.Context, status, result string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("status", strings.TrimSpace(status)),
		attribute.String("result", strings.TrimSpace(result)),
	)
	m.deliveries.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordIngest(ctx context.Context, route, result string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("route", strings.TrimSpace(route)),
		attribute.String("result", strings.TrimSpace(result)),
	)
	m.ingest.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		var opts []otlpmetrichttp.Option
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint), otlpmetrichttp.WithInsecure())
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

// Shop domains and order ids are never labels.
var allowedLabelKeys = map[attribute.Key]struct{}{
	"outcome":       {},
	"customer_type": {},
	"source":        {},
	"status":        {},
	"result":        {},
	"route":         {},
	"stage":         {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
