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
	ordersCreated metric.Int64Counter
	ticketsIssued metric.Int64Counter
	orderErrors   metric.Int64Counter
	checkIns      metric.Int64Counter
	emailsSent    metric.Int64Counter
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
		name = "na-api"
	}
	meter := provider.Meter(name)

	ordersCreated, err := meter.Int64Counter("na_orders_created_total")
	if err != nil {
		return nil, err
	}
	ticketsIssued, err := meter.Int64Counter("na_tickets_issued_total")
	if err != nil {
		return nil, err
	}
	orderErrors, err := meter.Int64Counter("na_order_errors_total")
	if err != nil {
		return nil, err
	}
	checkIns, err := meter.Int64Counter("na_ticket_checkins_total")
	if err != nil {
		return nil, err
	}
	emailsSent, err := meter.Int64Counter("na_emails_sent_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ordersCreated: ordersCreated,
		ticketsIssued: ticketsIssued,
		orderErrors:   orderErrors,
		checkIns:      checkIns,
		emailsSent:    emailsSent,
	}, nil
}

// RecordOrderCreated increments created order counts by delivery status.
func (m *Metrics) RecordOrderCreated(ctx context.Context, deliveryStatus string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("delivery_status", strings.TrimSpace(deliveryStatus)))
	m.ordersCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordTicketsIssued(ctx context.Context, ticketType string, n int) {
	if m == nil || n <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("ticket_type", strings.TrimSpace(ticketType)))
	m.ticketsIssued.Add(ctx, int64(n), metric.WithAttributes(attrs...))
}

// RecordOrderErrors increments counts of line items that could not be fulfilled.
func (m *Metrics) RecordOrderErrors(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.orderErrors.Add(ctx, int64(n))
}

func (m *Metrics) RecordCheckIn(ctx context.Context, result string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("result", strings.TrimSpace(result)))
	m.checkIns.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordEmail increments outbound email counts by kind and outcome.
func (m *Metrics) RecordEmail(ctx context.Context, kind string, ok bool) {
	if m == nil {
		return
	}
	reason := "sent"
	if !ok {
		reason = "failed"
	}
	attrs := FilterAttributes(
		attribute.String("event_type", strings.TrimSpace(kind)),
		attribute.String("reason", reason),
	)
	m.emailsSent.Add(ctx, 1, metric.WithAttributes(attrs...))
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
	"endpoint":        {},
	"status_code":     {},
	"delivery_status": {},
	"ticket_type":     {},
	"event_type":      {},
	"result":          {},
	"reason":          {},
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
