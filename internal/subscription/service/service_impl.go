package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paylane/internal/clock"
	"github.com/smallbiznis/paylane/internal/entity"
	"github.com/smallbiznis/paylane/internal/events"
	gatewaydomain "github.com/smallbiznis/paylane/internal/gateway/domain"
	"github.com/smallbiznis/paylane/internal/money"
	obsmetrics "github.com/smallbiznis/paylane/internal/observability/metrics"
	"github.com/smallbiznis/paylane/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	Gateway    gatewaydomain.Gateway
	Publisher  *events.Publisher
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	gateway    gatewaydomain.Gateway
	publisher  *events.Publisher
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("subscription.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		gateway:    p.Gateway,
		publisher:  p.Publisher,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Subscription, error) {
	amount, err := money.New(req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}
	planName := strings.TrimSpace(req.PlanName)
	if planName == "" {
		return nil, domain.ErrInvalidPlanName
	}
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		return nil, domain.ErrInvalidCustomer
	}

	now := s.clock.Now()
	startDate := now
	if req.StartDate != nil && !req.StartDate.IsZero() {
		startDate = req.StartDate.UTC()
	}
	nextBillingDate, err := req.BillingCycle.Next(startDate)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.CreateSubscription(ctx, gatewaydomain.SubscriptionRequest{
		Amount:       amount,
		CustomerID:   customerID,
		PlanName:     planName,
		BillingCycle: string(req.BillingCycle),
		Description:  "Subscription for " + planName,
	})
	if err != nil {
		return nil, err
	}

	sub := &domain.Subscription{
		Record:          entity.NewRecord(s.genID.Generate(), now),
		ApplicationID:   req.ApplicationID,
		ExternalID:      result.ExternalID,
		PlanName:        planName,
		Amount:          amount,
		BillingCycle:    req.BillingCycle,
		Status:          domain.StatusActive,
		StartDate:       startDate,
		NextBillingDate: nextBillingDate,
		CustomerID:      customerID,
		Metadata:        copyMetadata(req.Metadata),
	}
	if err := s.repo.Save(ctx, s.db, sub); err != nil {
		return nil, err
	}

	s.obsMetrics.RecordSubscriptionCreated(ctx, string(sub.BillingCycle))
	s.log.Info("subscription created",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("application_id", sub.ApplicationID.String()),
		zap.String("external_id", sub.ExternalID),
		zap.String("billing_cycle", string(sub.BillingCycle)),
		zap.Time("next_billing_date", sub.NextBillingDate),
	)

	s.publish(ctx, events.SubscriptionCreated, sub)
	return sub, nil
}

func (s *Service) Cancel(ctx context.Context, appID snowflake.ID, id string) (*domain.Subscription, error) {
	current, err := s.Get(ctx, appID, id)
	if err != nil {
		return nil, err
	}
	updated := current.Cancel(s.clock.Now())
	if err := s.update(ctx, current, &updated); err != nil {
		return nil, err
	}
	s.publish(ctx, events.SubscriptionCancelled, &updated)
	return &updated, nil
}

func (s *Service) Suspend(ctx context.Context, appID snowflake.ID, id string) (*domain.Subscription, error) {
	current, err := s.Get(ctx, appID, id)
	if err != nil {
		return nil, err
	}
	updated := current.Suspend(s.clock.Now())
	if err := s.update(ctx, current, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Service) update(ctx context.Context, current *domain.Subscription, updated *domain.Subscription) error {
	if err := s.repo.Update(ctx, s.db, updated); err != nil {
		return err
	}
	s.obsMetrics.RecordSubscriptionTransition(ctx, string(updated.Status))
	s.log.Info("subscription status updated",
		zap.String("subscription_id", updated.ID.String()),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
	)
	return nil
}

func (s *Service) Get(ctx context.Context, appID snowflake.ID, id string) (*domain.Subscription, error) {
	subID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrNotFound
	}
	sub, err := s.repo.FindByID(ctx, s.db, subID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, domain.ErrNotFound
	}
	if appID != 0 && sub.ApplicationID != appID {
		return nil, domain.ErrNotFound
	}
	return sub, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Subscription, error) {
	status := domain.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if status != "" && !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	return s.repo.FindByApplicationID(ctx, s.db, domain.ListFilter{
		ApplicationID: req.ApplicationID,
		Status:        status,
	})
}

func (s *Service) ListByCustomer(ctx context.Context, appID snowflake.ID, customerID string) ([]domain.Subscription, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, domain.ErrInvalidCustomer
	}
	return s.repo.FindByCustomerID(ctx, s.db, appID, customerID)
}

func (s *Service) DueForRenewal(ctx context.Context, appID snowflake.ID, asOf *time.Time) ([]domain.Subscription, error) {
	at := s.clock.Now()
	if asOf != nil && !asOf.IsZero() {
		at = asOf.UTC()
	}
	return s.repo.FindDueForRenewal(ctx, s.db, domain.DueFilter{ApplicationID: appID, AsOf: at})
}

func (s *Service) RenewDue(ctx context.Context, asOf time.Time, limit int) (int, error) {
	due, err := s.repo.FindDueForRenewal(ctx, s.db, domain.DueFilter{AsOf: asOf.UTC(), Limit: limit})
	if err != nil {
		return 0, err
	}

	renewed := 0
	for i := range due {
		if err := ctx.Err(); err != nil {
			return renewed, err
		}
		current := due[i]
		updated, err := current.Renew(s.clock.Now())
		if err != nil {
			s.log.Warn("subscription renewal skipped",
				zap.String("subscription_id", current.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if err := s.repo.Update(ctx, s.db, &updated); err != nil {
			return renewed, err
		}
		renewed++
		s.log.Info("subscription renewal due",
			zap.String("subscription_id", updated.ID.String()),
			zap.Time("billed_at", current.NextBillingDate),
			zap.Time("next_billing_date", updated.NextBillingDate),
		)
		s.publish(ctx, events.SubscriptionRenewalDue, &updated)
	}
	return renewed, nil
}

func (s *Service) publish(ctx context.Context, eventType string, sub *domain.Subscription) {
	s.publisher.PublishSubscription(ctx, &events.SubscriptionEvent{
		Type:           eventType,
		SubscriptionID: sub.ID.String(),
		AppID:          sub.ApplicationID.String(),
		CustomerID:     sub.CustomerID,
		Amount:         sub.Amount.Float64(),
	})
}

func copyMetadata(in map[string]any) datatypes.JSONMap {
	if len(in) == 0 {
		return nil
	}
	out := make(datatypes.JSONMap, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
