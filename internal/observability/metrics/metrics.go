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

const (
	ResourceCustomer    = "customer"
	ResourceInvoice     = "invoice"
	ResourcePhoneNumber = "phone_number"

	SourceDirect   = "direct"
	SourceEmbedded = "embedded"
	SourceSeed     = "seed"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	created   metric.Int64Counter
	deleted   metric.Int64Counter
	conflicts metric.Int64Counter
	rejected  metric.Int64Counter
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
	name := serviceName(cfg)
	meter := provider.Meter(name)

	created, err := meter.Int64Counter("customerdesk_entities_created_total",
		metric.WithDescription("Entities created by resource and source."))
	if err != nil {
		return nil, err
	}
	deleted, err := meter.Int64Counter("customerdesk_entities_deleted_total",
		metric.WithDescription("Entities deleted by resource, including cascades."))
	if err != nil {
		return nil, err
	}
	conflicts, err := meter.Int64Counter("customerdesk_conflicts_total",
		metric.WithDescription("Requests refused because of a uniqueness conflict."))
	if err != nil {
		return nil, err
	}
	rejected, err := meter.Int64Counter("customerdesk_validation_rejections_total",
		metric.WithDescription("Requests refused by domain validation."))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		created:   created,
		deleted:   deleted,
		conflicts: conflicts,
		rejected:  rejected,
	}, nil
}

// RecordCreated increments created entity counts.
func (m *Metrics) RecordCreated(ctx context.Context, resource, source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	attrs := FilterAttributes(
		attribute.String("resource", strings.TrimSpace(resource)),
		attribute.String("source_type", strings.TrimSpace(source)),
	)
	m.created.Add(ctx, int64(n), metric.WithAttributes(attrs...))
}

// RecordDeleted increments deleted entity counts.
func (m *Metrics) RecordDeleted(ctx context.Context, resource string, n int) {
	if m == nil || n <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("resource", strings.TrimSpace(resource)))
	m.deleted.Add(ctx, int64(n), metric.WithAttributes(attrs...))
}

// RecordConflict increments uniqueness conflict counts.
func (m *Metrics) RecordConflict(ctx context.Context, resource, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("resource", strings.TrimSpace(resource)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.conflicts.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRejected increments validation rejection counts.
func (m *Metrics) RecordRejected(ctx context.Context, resource, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("resource", strings.TrimSpace(resource)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.rejected.Add(ctx, 1, metric.WithAttributes(attrs...))
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

func serviceName(cfg Config) string {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "customerdesk"
	}
	return name
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"resource":    {},
	"source_type": {},
	"reason":      {},
	"endpoint":    {},
	"status_code": {},
	"phone_type":  {},
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
