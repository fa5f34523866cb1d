package events

import (
	"context"
	"encoding/json"

	"github.com/smallbiznis/paylane/internal/clock"
	"github.com/smallbiznis/paylane/internal/observability/metrics"
	"go.uber.org/zap"
)

// Publisher is the best-effort event boundary. Publish never returns an
// error: failures are logged and counted, then dropped.
type Publisher struct {
	transport Transport
	clock     clock.Clock
	log       *zap.Logger
	metrics   *metrics.Metrics
}

func NewPublisher(transport Transport, clk clock.Clock, log *zap.Logger, m *metrics.Metrics) *Publisher {
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{transport: transport, clock: clk, log: log.Named("events.publisher"), metrics: m}
}

// Publish stamps the event with the current time, encodes it and sends it to
// "{family}.{applicationId}". It reports whether delivery to the transport
// succeeded.
func (p *Publisher) Publish(ctx context.Context, family Family, event Event) bool {
	if p == nil || event == nil {
		return false
	}
	event.stamp(p.clock.Now())
	channel := Channel(family, event.ApplicationID())

	fields := []zap.Field{
		zap.String("channel", channel),
		zap.String("event_type", event.EventType()),
		zap.String("entity_id", event.EntityID()),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.fail(ctx, family, event, append(fields, zap.Error(err)))
		return false
	}
	if p.transport == nil {
		p.fail(ctx, family, event, append(fields, zap.Error(ErrTransportUnavailable)))
		return false
	}
	if err := p.transport.Publish(ctx, channel, payload); err != nil {
		p.fail(ctx, family, event, append(fields, zap.Error(err)))
		return false
	}

	p.metrics.RecordEventPublished(ctx, string(family), event.EventType())
	p.log.Debug("event published", fields...)
	return true
}

func (p *Publisher) PublishPayment(ctx context.Context, event *PaymentEvent) bool {
	return p.Publish(ctx, FamilyPayments, event)
}

func (p *Publisher) PublishSubscription(ctx context.Context, event *SubscriptionEvent) bool {
	return p.Publish(ctx, FamilySubscriptions, event)
}

func (p *Publisher) fail(ctx context.Context, family Family, event Event, fields []zap.Field) {
	p.metrics.RecordEventPublishFailure(ctx, string(family), event.EventType())
	p.log.Warn("event publish failed", fields...)
}
