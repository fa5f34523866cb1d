package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/paylane/internal/clock"
	"github.com/smallbiznis/paylane/internal/events"
	gatewaydomain "github.com/smallbiznis/paylane/internal/gateway/domain"
	"github.com/smallbiznis/paylane/internal/gateway/gatewaytest"
	"github.com/smallbiznis/paylane/internal/money"
	"github.com/smallbiznis/paylane/internal/subscription/domain"
	"github.com/smallbiznis/paylane/internal/subscription/repository"
	"github.com/smallbiznis/paylane/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const appA = snowflake.ID(1001)

type fixture struct {
	db      *gorm.DB
	svc     domain.Service
	gateway *gatewaytest.MockGateway
	hub     *events.MemoryTransport
	clock   *clock.FakeClock
	node    *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t, &domain.Subscription{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	hub := events.NewMemoryTransport()
	gw := &gatewaytest.MockGateway{}

	svc := NewService(Params{
		DB:        conn,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     clk,
		Repo:      repository.Provide(),
		Gateway:   gw,
		Publisher: events.NewPublisher(hub, clk, zap.NewNop(), nil),
	})
	return &fixture{db: conn, svc: svc, gateway: gw, hub: hub, clock: clk, node: node}
}

func (f *fixture) create(t *testing.T, cycle domain.BillingCycle, customerID string, start *time.Time) *domain.Subscription {
	t.Helper()
	f.gateway.On("CreateSubscription", mock.Anything, mock.Anything).
		Return(&gatewaydomain.SubscriptionResponse{ExternalID: "ext-sub", Status: "active"}, nil).Once()
	sub, err := f.svc.Create(context.Background(), domain.CreateRequest{
		ApplicationID: appA,
		PlanName:      "Premium",
		Amount:        decimal.RequireFromString("29.90"),
		BillingCycle:  cycle,
		CustomerID:    customerID,
		StartDate:     start,
	})
	require.NoError(t, err)
	return sub
}

func eventTypes(t *testing.T, msgs []events.Message) []string {
	t.Helper()
	out := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		var body map[string]any
		require.NoError(t, json.Unmarshal(msg.Payload, &body))
		out = append(out, body["type"].(string))
	}
	return out
}

func TestCreateSubscription(t *testing.T) {
	f := newFixture(t)
	f.gateway.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(req gatewaydomain.SubscriptionRequest) bool {
		return req.PlanName == "Premium" &&
			req.BillingCycle == "monthly" &&
			req.CustomerID == "cust-1" &&
			req.Description == "Subscription for Premium" &&
			req.Amount.Equals(money.MustNew("29.90", "BRL"))
	})).Return(&gatewaydomain.SubscriptionResponse{ExternalID: "pre_1", Status: "authorized"}, nil).Once()

	sub, err := f.svc.Create(context.Background(), domain.CreateRequest{
		ApplicationID: appA,
		PlanName:      "Premium",
		Amount:        decimal.RequireFromString("29.90"),
		BillingCycle:  domain.BillingCycleMonthly,
		CustomerID:    "cust-1",
	})
	require.NoError(t, err)
	f.gateway.AssertExpectations(t)

	assert.Equal(t, domain.StatusActive, sub.Status)
	assert.Equal(t, "pre_1", sub.ExternalID)
	assert.True(t, sub.StartDate.Equal(f.clock.Now()))
	assert.True(t, sub.NextBillingDate.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))

	msgs := f.hub.Recent("subscriptions.1001")
	require.Len(t, msgs, 1)
	var body map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &body))
	assert.Equal(t, "subscription.created", body["type"])
	assert.Equal(t, sub.ID.String(), body["subscriptionId"])
	assert.Equal(t, "cust-1", body["customerId"])
	assert.Equal(t, 29.9, body["amount"])
}

func TestCreateSubscriptionFromStartDate(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	quarterly := f.create(t, domain.BillingCycleQuarterly, "c1", &start)
	assert.True(t, quarterly.NextBillingDate.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))

	yearly := f.create(t, domain.BillingCycleYearly, "c1", &start)
	assert.True(t, yearly.NextBillingDate.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestCreateSubscriptionValidation(t *testing.T) {
	f := newFixture(t)
	base := domain.CreateRequest{
		ApplicationID: appA,
		PlanName:      "Premium",
		Amount:        decimal.NewFromInt(10),
		BillingCycle:  domain.BillingCycleMonthly,
		CustomerID:    "c1",
	}

	negative := base
	negative.Amount = decimal.NewFromInt(-10)
	_, err := f.svc.Create(context.Background(), negative)
	assert.ErrorIs(t, err, money.ErrInvalidAmount)

	weekly := base
	weekly.BillingCycle = "weekly"
	_, err = f.svc.Create(context.Background(), weekly)
	assert.ErrorIs(t, err, domain.ErrInvalidBillingCycle)

	noCustomer := base
	noCustomer.CustomerID = " "
	_, err = f.svc.Create(context.Background(), noCustomer)
	assert.ErrorIs(t, err, domain.ErrInvalidCustomer)

	f.gateway.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
}

func TestCreateSubscriptionGatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.gateway.On("CreateSubscription", mock.Anything, mock.Anything).
		Return(nil, gatewaydomain.NewError("mock", "create_subscription", errors.New("down"))).Once()

	_, err := f.svc.Create(context.Background(), domain.CreateRequest{
		ApplicationID: appA,
		PlanName:      "Premium",
		Amount:        decimal.NewFromInt(10),
		BillingCycle:  domain.BillingCycleMonthly,
		CustomerID:    "c1",
	})
	assert.ErrorIs(t, err, gatewaydomain.ErrGateway)

	var n int64
	require.NoError(t, f.db.Model(&domain.Subscription{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Empty(t, f.hub.Recent("subscriptions.1001"))
}

func TestCancelPublishesAndSuspendDoesNot(t *testing.T) {
	f := newFixture(t)
	toCancel := f.create(t, domain.BillingCycleMonthly, "c1", nil)
	toSuspend := f.create(t, domain.BillingCycleMonthly, "c2", nil)

	cancelled, err := f.svc.Cancel(context.Background(), appA, toCancel.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	suspended, err := f.svc.Suspend(context.Background(), appA, toSuspend.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuspended, suspended.Status)

	assert.Equal(t,
		[]string{"subscription.created", "subscription.created", "subscription.cancelled"},
		eventTypes(t, f.hub.Recent("subscriptions.1001")),
	)

	stored, err := f.svc.Get(context.Background(), appA, toSuspend.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuspended, stored.Status)
}

func TestCancelNotFound(t *testing.T) {
	f := newFixture(t)
	sub := f.create(t, domain.BillingCycleMonthly, "c1", nil)

	_, err := f.svc.Cancel(context.Background(), appA, "123")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Cancel(context.Background(), appA, "abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Suspend(context.Background(), snowflake.ID(2002), sub.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDueForRenewal(t *testing.T) {
	f := newFixture(t)
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dec := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)

	dueMonthly := f.create(t, domain.BillingCycleMonthly, "c1", &dec)
	notYet := f.create(t, domain.BillingCycleYearly, "c2", &jan)
	suspended := f.create(t, domain.BillingCycleMonthly, "c3", &dec)
	_, err := f.svc.Suspend(context.Background(), appA, suspended.ID.String())
	require.NoError(t, err)

	asOf := jan
	due, err := f.svc.DueForRenewal(context.Background(), appA, &asOf)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, dueMonthly.ID, due[0].ID)

	later := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	due, err = f.svc.DueForRenewal(context.Background(), appA, &later)
	require.NoError(t, err)
	ids := []snowflake.ID{}
	for _, s := range due {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []snowflake.ID{dueMonthly.ID, notYet.ID}, ids)

	due, err = f.svc.DueForRenewal(context.Background(), snowflake.ID(2002), &later)
	require.NoError(t, err)
	assert.Empty(t, due)

	// nil asOf uses the clock, which sits at 2024-01-01.
	due, err = f.svc.DueForRenewal(context.Background(), appA, nil)
	require.NoError(t, err)
	assert.Len(t, due, 1)
}

func TestRenewDueAdvancesAndPublishes(t *testing.T) {
	f := newFixture(t)
	dec := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
	sub := f.create(t, domain.BillingCycleMonthly, "c1", &dec)

	renewed, err := f.svc.RenewDue(context.Background(), f.clock.Now(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, renewed)

	stored, err := f.svc.Get(context.Background(), appA, sub.ID.String())
	require.NoError(t, err)
	assert.True(t, stored.NextBillingDate.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t,
		[]string{"subscription.created", "subscription.renewal.due"},
		eventTypes(t, f.hub.Recent("subscriptions.1001")),
	)

	renewed, err = f.svc.RenewDue(context.Background(), f.clock.Now(), 10)
	require.NoError(t, err)
	assert.Zero(t, renewed)
}

func TestListAndListByCustomer(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, domain.BillingCycleMonthly, "c1", nil)
	f.create(t, domain.BillingCycleMonthly, "c2", nil)
	_, err := f.svc.Cancel(context.Background(), appA, first.ID.String())
	require.NoError(t, err)

	all, err := f.svc.List(context.Background(), domain.ListRequest{ApplicationID: appA})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	cancelled, err := f.svc.List(context.Background(), domain.ListRequest{ApplicationID: appA, Status: "cancelled"})
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, first.ID, cancelled[0].ID)

	_, err = f.svc.List(context.Background(), domain.ListRequest{ApplicationID: appA, Status: "paused"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	byCustomer, err := f.svc.ListByCustomer(context.Background(), appA, "c2")
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)
	assert.Equal(t, "c2", byCustomer[0].CustomerID)
}

type failingRepo struct {
	domain.Repository
	saveErr   error
	updateErr error
}

func (r *failingRepo) Save(ctx context.Context, db *gorm.DB, sub *domain.Subscription) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	return r.Repository.Save(ctx, db, sub)
}

func (r *failingRepo) Update(ctx context.Context, db *gorm.DB, sub *domain.Subscription) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	return r.Repository.Update(ctx, db, sub)
}

type failingTransport struct{}

func (failingTransport) Publish(context.Context, string, []byte) error {
	return errors.New("broker down")
}

func (f *fixture) serviceWith(repo domain.Repository, transport events.Transport) domain.Service {
	return NewService(Params{
		DB:        f.db,
		Log:       zap.NewNop(),
		GenID:     f.node,
		Clock:     f.clock,
		Repo:      repo,
		Gateway:   f.gateway,
		Publisher: events.NewPublisher(transport, f.clock, zap.NewNop(), nil),
	})
}

func TestCreateSubscriptionSaveFailureIsNotPublished(t *testing.T) {
	f := newFixture(t)
	saveErr := errors.New("disk full")
	svc := f.serviceWith(&failingRepo{Repository: repository.Provide(), saveErr: saveErr}, f.hub)
	f.gateway.On("CreateSubscription", mock.Anything, mock.Anything).
		Return(&gatewaydomain.SubscriptionResponse{ExternalID: "ext-sub", Status: "active"}, nil).Once()

	_, err := svc.Create(context.Background(), domain.CreateRequest{
		ApplicationID: appA,
		PlanName:      "Premium",
		Amount:        decimal.NewFromInt(10),
		BillingCycle:  domain.BillingCycleMonthly,
		CustomerID:    "c1",
	})
	assert.ErrorIs(t, err, saveErr)

	var n int64
	require.NoError(t, f.db.Model(&domain.Subscription{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Empty(t, f.hub.Recent("subscriptions.1001"))
}

func TestCancelUpdateFailureIsNotPublished(t *testing.T) {
	f := newFixture(t)
	sub := f.create(t, domain.BillingCycleMonthly, "c1", nil)

	updateErr := errors.New("connection reset")
	svc := f.serviceWith(&failingRepo{Repository: repository.Provide(), updateErr: updateErr}, f.hub)

	_, err := svc.Cancel(context.Background(), appA, sub.ID.String())
	assert.ErrorIs(t, err, updateErr)
	assert.Equal(t, []string{"subscription.created"}, eventTypes(t, f.hub.Recent("subscriptions.1001")))

	stored, err := f.svc.Get(context.Background(), appA, sub.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, stored.Status)
}

func TestRenewDueUpdateFailureIsNotPublished(t *testing.T) {
	f := newFixture(t)
	sub := f.create(t, domain.BillingCycleMonthly, "c1", nil)

	updateErr := errors.New("connection reset")
	svc := f.serviceWith(&failingRepo{Repository: repository.Provide(), updateErr: updateErr}, f.hub)

	renewed, err := svc.RenewDue(context.Background(), sub.NextBillingDate, 10)
	assert.ErrorIs(t, err, updateErr)
	assert.Zero(t, renewed)
	assert.Equal(t, []string{"subscription.created"}, eventTypes(t, f.hub.Recent("subscriptions.1001")))
}

func TestPublishFailureDoesNotFailSubscriptionOperations(t *testing.T) {
	f := newFixture(t)
	svc := f.serviceWith(repository.Provide(), failingTransport{})
	f.gateway.On("CreateSubscription", mock.Anything, mock.Anything).
		Return(&gatewaydomain.SubscriptionResponse{ExternalID: "ext-sub", Status: "active"}, nil).Once()

	sub, err := svc.Create(context.Background(), domain.CreateRequest{
		ApplicationID: appA,
		PlanName:      "Premium",
		Amount:        decimal.NewFromInt(10),
		BillingCycle:  domain.BillingCycleMonthly,
		CustomerID:    "c1",
	})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), appA, sub.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	stored, err := svc.Get(context.Background(), appA, sub.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, stored.Status)
}
