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

// Metrics exposes application-level instruments.
type Metrics struct {
	usageFetch     metric.Int64Counter
	providerErrors metric.Int64Counter
	cacheWrites    metric.Int64Counter
	staleDiscards  metric.Int64Counter
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

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "creditdash"
	}
	meter := provider.Meter(name)

	usageFetch, err := meter.Int64Counter("creditdash_usage_fetch_total")
	if err != nil {
		return nil, err
	}
	providerErrors, err := meter.Int64Counter("creditdash_provider_errors_total")
	if err != nil {
		return nil, err
	}
	cacheWrites, err := meter.Int64Counter("creditdash_usage_cache_writes_total")
	if err != nil {
		return nil, err
	}
	staleDiscards, err := meter.Int64Counter("creditdash_usage_stale_discards_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		usageFetch:     usageFetch,
		providerErrors: providerErrors,
		cacheWrites:    cacheWrites,
		staleDiscards:  staleDiscards,
	}, nil
}

// RecordUsageFetch increments fetch counts by result source.
func (m *Metrics) RecordUsageFetch(ctx context.Context, source string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("source", strings.TrimSpace(source)))
	m.usageFetch.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordProviderError increments provider failure counts by status code.
func (m *Metrics) RecordProviderError(ctx context.Context, statusCode int) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.Int("status_code", statusCode))
	m.providerErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCacheWrite increments write-through counts.
func (m *Metrics) RecordCacheWrite(ctx context.Context) {
	if m == nil {
		return
	}
	m.cacheWrites.Add(ctx, 1)
}

// RecordStaleDiscard increments fenced-out response counts.
func (m *Metrics) RecordStaleDiscard(ctx context.Context) {
	if m == nil {
		return
	}
	m.staleDiscards.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
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

var allowedLabelKeys = map[attribute.Key]struct{}{
	"source":      {},
	"status_code": {},
	"endpoint":    {},
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
