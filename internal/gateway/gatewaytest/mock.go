// Package gatewaytest provides a testify mock of the gateway capability.
package gatewaytest

import (
	"context"

	"github.com/smallbiznis/paylane/internal/gateway/domain"
	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Provider() string { return "mock" }

func (m *MockGateway) CreatePayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResponse, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*domain.PaymentResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGateway) GetPaymentStatus(ctx context.Context, externalID string) (string, error) {
	args := m.Called(ctx, externalID)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) CancelPayment(ctx context.Context, externalID string) (bool, error) {
	args := m.Called(ctx, externalID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGateway) CreateSubscription(ctx context.Context, req domain.SubscriptionRequest) (*domain.SubscriptionResponse, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*domain.SubscriptionResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGateway) CancelSubscription(ctx context.Context, externalID string) (bool, error) {
	args := m.Called(ctx, externalID)
	return args.Bool(0), args.Error(1)
}
