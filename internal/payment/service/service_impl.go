package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paylane/internal/clock"
	"github.com/smallbiznis/paylane/internal/entity"
	"github.com/smallbiznis/paylane/internal/events"
	gatewaydomain "github.com/smallbiznis/paylane/internal/gateway/domain"
	"github.com/smallbiznis/paylane/internal/money"
	obsmetrics "github.com/smallbiznis/paylane/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/paylane/internal/payment/domain"
	subscriptiondomain "github.com/smallbiznis/paylane/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	GenID            *snowflake.Node
	Clock            clock.Clock
	Repo             paymentdomain.Repository
	SubscriptionRepo subscriptiondomain.Repository
	Gateway          gatewaydomain.Gateway
	Publisher        *events.Publisher
	ObsMetrics       *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db               *gorm.DB
	log              *zap.Logger
	genID            *snowflake.Node
	clock            clock.Clock
	repo             paymentdomain.Repository
	subscriptionRepo subscriptiondomain.Repository
	gateway          gatewaydomain.Gateway
	publisher        *events.Publisher
	obsMetrics       *obsmetrics.Metrics
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:               p.DB,
		log:              p.Log.Named("payment.service"),
		genID:            p.GenID,
		clock:            p.Clock,
		repo:             p.Repo,
		subscriptionRepo: p.SubscriptionRepo,
		gateway:          p.Gateway,
		publisher:        p.Publisher,
		obsMetrics:       p.ObsMetrics,
	}
}

func (s *Service) Create(ctx context.Context, req paymentdomain.CreateRequest) (*paymentdomain.Payment, error) {
	amount, err := money.New(req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}
	if !req.Method.Valid() {
		return nil, paymentdomain.ErrInvalidMethod
	}

	var subscriptionID *snowflake.ID
	if raw := strings.TrimSpace(req.SubscriptionID); raw != "" {
		id, err := s.ownedSubscription(ctx, req.ApplicationID, raw)
		if err != nil {
			return nil, err
		}
		subscriptionID = &id
	}

	description := strings.TrimSpace(req.Description)
	customerID := strings.TrimSpace(req.CustomerID)

	result, err := s.gateway.CreatePayment(ctx, gatewaydomain.PaymentRequest{
		Amount:      amount,
		Method:      string(req.Method),
		Description: description,
		CustomerID:  customerID,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	payment := &paymentdomain.Payment{
		Record:         entity.NewRecord(s.genID.Generate(), s.clock.Now()),
		ApplicationID:  req.ApplicationID,
		ExternalID:     result.ExternalID,
		Amount:         amount,
		Method:         req.Method,
		Status:         paymentdomain.StatusPending,
		Description:    description,
		CustomerID:     customerID,
		Metadata:       mergeGatewayFields(req.Metadata, result),
		SubscriptionID: subscriptionID,
	}
	if err := s.repo.Save(ctx, s.db, payment); err != nil {
		return nil, err
	}

	s.obsMetrics.RecordPaymentCreated(ctx, string(payment.Method))
	s.log.Info("payment created",
		zap.String("payment_id", payment.ID.String()),
		zap.String("application_id", payment.ApplicationID.String()),
		zap.String("external_id", payment.ExternalID),
		zap.String("method", string(payment.Method)),
	)

	s.publish(ctx, events.PaymentCreated, payment)
	return payment, nil
}

func (s *Service) UpdateStatus(ctx context.Context, req paymentdomain.UpdateStatusRequest) (*paymentdomain.Payment, error) {
	current, err := s.Get(ctx, req.ApplicationID, req.PaymentID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, current, req.Status)
}

func (s *Service) SyncStatus(ctx context.Context, appID snowflake.ID, id string) (*paymentdomain.Payment, error) {
	current, err := s.Get(ctx, appID, id)
	if err != nil {
		return nil, err
	}

	remote, err := s.gateway.GetPaymentStatus(ctx, current.ExternalID)
	if err != nil {
		return nil, err
	}

	target := paymentdomain.Status(remote)
	if target == current.Status {
		return current, nil
	}
	switch target {
	case paymentdomain.StatusApproved, paymentdomain.StatusRejected:
		return s.transition(ctx, current, target)
	case paymentdomain.StatusCancelled:
		if current.Status != paymentdomain.StatusPending {
			return current, nil
		}
		return s.transition(ctx, current, target)
	default:
		s.log.Debug("gateway status not applied",
			zap.String("payment_id", current.ID.String()),
			zap.String("gateway_status", remote),
		)
		return current, nil
	}
}

// transition dispatches on target. Persisting happens before publishing;
// concurrent transitions on the same payment are last-write-wins.
func (s *Service) transition(ctx context.Context, current *paymentdomain.Payment, target paymentdomain.Status) (*paymentdomain.Payment, error) {
	now := s.clock.Now()

	var (
		updated   paymentdomain.Payment
		eventType string
	)
	switch target {
	case paymentdomain.StatusApproved:
		updated = current.Approve(now)
		eventType = events.PaymentApproved
	case paymentdomain.StatusRejected:
		updated = current.Reject(now)
		eventType = events.PaymentRejected
	case paymentdomain.StatusCancelled:
		cancelled, err := current.Cancel(now)
		if err != nil {
			return nil, err
		}
		updated = cancelled
	default:
		return nil, paymentdomain.ErrInvalidTransition
	}

	if err := s.repo.Update(ctx, s.db, &updated); err != nil {
		return nil, err
	}

	s.obsMetrics.RecordPaymentTransition(ctx, string(updated.Status))
	s.log.Info("payment status updated",
		zap.String("payment_id", updated.ID.String()),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
	)

	if eventType != "" {
		s.publish(ctx, eventType, &updated)
	}
	return &updated, nil
}

func (s *Service) Get(ctx context.Context, appID snowflake.ID, id string) (*paymentdomain.Payment, error) {
	paymentID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, paymentdomain.ErrNotFound
	}
	payment, err := s.repo.FindByID(ctx, s.db, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, paymentdomain.ErrNotFound
	}
	if appID != 0 && payment.ApplicationID != appID {
		return nil, paymentdomain.ErrNotFound
	}
	return payment, nil
}

func (s *Service) List(ctx context.Context, req paymentdomain.ListRequest) ([]paymentdomain.Payment, error) {
	status := paymentdomain.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if status != "" && !status.Valid() {
		return nil, paymentdomain.ErrInvalidStatus
	}
	return s.repo.FindByApplicationID(ctx, s.db, paymentdomain.ListFilter{
		ApplicationID: req.ApplicationID,
		Status:        status,
	})
}

func (s *Service) ListBySubscription(ctx context.Context, appID snowflake.ID, subscriptionID string) ([]paymentdomain.Payment, error) {
	id, err := s.ownedSubscription(ctx, appID, subscriptionID)
	if err != nil {
		return nil, err
	}
	return s.repo.FindBySubscriptionID(ctx, s.db, id)
}

func (s *Service) ownedSubscription(ctx context.Context, appID snowflake.ID, raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, subscriptiondomain.ErrNotFound
	}
	sub, err := s.subscriptionRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return 0, err
	}
	if sub == nil || sub.ApplicationID != appID {
		return 0, subscriptiondomain.ErrNotFound
	}
	return id, nil
}

func (s *Service) publish(ctx context.Context, eventType string, payment *paymentdomain.Payment) {
	event := &events.PaymentEvent{
		Type:       eventType,
		PaymentID:  payment.ID.String(),
		AppID:      payment.ApplicationID.String(),
		CustomerID: payment.CustomerID,
		Amount:     payment.Amount.Float64(),
	}
	if payment.SubscriptionID != nil {
		event.SubscriptionID = payment.SubscriptionID.String()
	}
	s.publisher.PublishPayment(ctx, event)
}

// mergeGatewayFields copies caller metadata and adds the checkout details the
// gateway returned.
func mergeGatewayFields(in map[string]any, result *gatewaydomain.PaymentResponse) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for k, v := range in {
		out[k] = v
	}
	if result.PaymentURL != "" {
		out["paymentUrl"] = result.PaymentURL
	}
	if result.QRCode != "" {
		out["qrCode"] = result.QRCode
	}
	if result.PixKey != "" {
		out["pixKey"] = result.PixKey
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
