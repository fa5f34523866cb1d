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
	paymentsCreated      metric.Int64Counter
	paymentTransitions   metric.Int64Counter
	subscriptionsCreated metric.Int64Counter
	subscriptionChanges  metric.Int64Counter
	eventsPublished      metric.Int64Counter
	eventPublishFailures metric.Int64Counter
	gatewayErrors        metric.Int64Counter
	rateLimitDenied      metric.Int64Counter
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
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "paylane"
	}
	meter := provider.Meter(name)

	m := &Metrics{}
	counters := []struct {
		target *metric.Int64Counter
		name   string
		desc   string
	}{
		{&m.paymentsCreated, "paylane_payments_created_total", "Payments created by method."},
		{&m.paymentTransitions, "paylane_payment_transitions_total", "Payment status transitions by target status."},
		{&m.subscriptionsCreated, "paylane_subscriptions_created_total", "Subscriptions created by billing cycle."},
		{&m.subscriptionChanges, "paylane_subscription_transitions_total", "Subscription status changes by target status."},
		{&m.eventsPublished, "paylane_events_published_total", "Lifecycle events delivered to the broker."},
		{&m.eventPublishFailures, "paylane_events_publish_failures_total", "Lifecycle events dropped after a broker failure."},
		{&m.gatewayErrors, "paylane_gateway_errors_total", "Gateway calls that aborted an orchestration."},
		{&m.rateLimitDenied, "paylane_rate_limit_denied_total", "Requests rejected by the per-application rate limiter."},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	return m, nil
}

// NewNoop returns instruments backed by the noop provider, for tests and tools.
func NewNoop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

func (m *Metrics) RecordPaymentCreated(ctx context.Context, method string) {
	if m == nil {
		return
	}
	m.paymentsCreated.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("method", method))...))
}

func (m *Metrics) RecordPaymentTransition(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.paymentTransitions.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("status", status))...))
}

func (m *Metrics) RecordSubscriptionCreated(ctx context.Context, billingCycle string) {
	if m == nil {
		return
	}
	m.subscriptionsCreated.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("billing_cycle", billingCycle))...))
}

func (m *Metrics) RecordSubscriptionTransition(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.subscriptionChanges.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("status", status))...))
}

// RecordEventPublished counts a delivered lifecycle event.
func (m *Metrics) RecordEventPublished(ctx context.Context, family, eventType string) {
	if m == nil {
		return
	}
	m.eventsPublished.Add(ctx, 1, metric.WithAttributes(eventAttributes(family, eventType)...))
}

// RecordEventPublishFailure counts a lifecycle event the broker did not accept.
func (m *Metrics) RecordEventPublishFailure(ctx context.Context, family, eventType string) {
	if m == nil {
		return
	}
	m.eventPublishFailures.Add(ctx, 1, metric.WithAttributes(eventAttributes(family, eventType)...))
}

func (m *Metrics) RecordGatewayError(ctx context.Context, provider, operation string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("provider", strings.TrimSpace(provider)),
		attribute.String("operation", strings.TrimSpace(operation)),
	)
	m.gatewayErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("endpoint", endpoint))...))
}

func eventAttributes(family, eventType string) []attribute.KeyValue {
	return FilterAttributes(
		attribute.String("family", strings.TrimSpace(family)),
		attribute.String("event_type", strings.TrimSpace(eventType)),
	)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
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

// Application and entity ids are never allowed as labels.
var allowedLabelKeys = map[attribute.Key]struct{}{
	"method":        {},
	"status":        {},
	"billing_cycle": {},
	"family":        {},
	"event_type":    {},
	"provider":      {},
	"operation":     {},
	"endpoint":      {},
	"status_code":   {},
	"reason":        {},
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
